package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/navikt/datavask-backend/pkg/database"
	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
)

var _ service.ColumnsStorage = &columnsStorage{}

type columnsStorage struct {
	db *database.Repo
}

func (s *columnsStorage) DropColumns(ctx context.Context, table string, columns []string) error {
	const op errs.Op = "columnsStorage.DropColumns"

	if err := checkIdentifiers(op, append([]string{table}, columns...)...); err != nil {
		return err
	}

	tx, err := s.db.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return dbError(op, err)
	}
	defer tx.Rollback()

	for _, c := range columns {
		if c == service.SurrogateColumn {
			return errs.E(errs.Validation, op, errs.Parameter(c), fmt.Errorf("column %s can not be removed", c))
		}

		_, err = tx.ExecContext(ctx, fmt.Sprintf(
			"ALTER TABLE %s DROP COLUMN %s",
			qualified(s.db.Schema(), table), pq.QuoteIdentifier(c),
		))
		if err != nil {
			return dbError(op, err, errs.Parameter(c))
		}
	}

	err = tx.Commit()
	if err != nil {
		return dbError(op, err)
	}

	return nil
}

func (s *columnsStorage) RenameColumns(ctx context.Context, table string, renames []service.ColumnRename) error {
	const op errs.Op = "columnsStorage.RenameColumns"

	if err := checkIdentifiers(op, table); err != nil {
		return err
	}

	tx, err := s.db.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return dbError(op, err)
	}
	defer tx.Rollback()

	for _, r := range renames {
		if err := checkIdentifiers(op, r.From, r.To); err != nil {
			return err
		}

		if r.From == service.SurrogateColumn || r.To == service.SurrogateColumn {
			return errs.E(errs.Validation, op, errs.Parameter(r.From), fmt.Errorf("column %s is reserved", service.SurrogateColumn))
		}

		_, err = tx.ExecContext(ctx, fmt.Sprintf(
			"ALTER TABLE %s RENAME COLUMN %s TO %s",
			qualified(s.db.Schema(), table), pq.QuoteIdentifier(r.From), pq.QuoteIdentifier(r.To),
		))
		if err != nil {
			return dbError(op, err, errs.Parameter(r.From))
		}
	}

	err = tx.Commit()
	if err != nil {
		return dbError(op, err)
	}

	return nil
}

func NewColumnsStorage(db *database.Repo) *columnsStorage {
	return &columnsStorage{
		db: db,
	}
}
