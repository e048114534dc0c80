package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/navikt/datavask-backend/pkg/database"
	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
)

var _ service.SyncStorage = &syncStorage{}

type syncStorage struct {
	db *database.Repo
}

// Sync reconciles the columns of mirror with source and reloads every row.
// A missing mirror is created with the structure of source.
func (s *syncStorage) Sync(ctx context.Context, source, mirror string) error {
	const op errs.Op = "syncStorage.Sync"

	if err := checkIdentifiers(op, source, mirror); err != nil {
		return err
	}

	tx, err := s.db.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return dbError(op, err)
	}
	defer tx.Rollback()

	schema := s.db.Schema()
	src := qualified(schema, source)
	dst := qualified(schema, mirror)

	sourceColumns, err := tableColumns(ctx, tx, schema, source)
	if err != nil {
		return errs.E(op, err)
	}

	mirrorColumns, err := tableColumns(ctx, tx, schema, mirror)
	if err != nil && errs.KindIs(errs.NotExist, err) {
		_, err = tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (LIKE %s)", dst, src))
		if err != nil {
			return dbError(op, err, errs.Parameter(mirror))
		}

		mirrorColumns = sourceColumns
	} else if err != nil {
		return errs.E(op, err)
	}

	// Emptied before the columns are reconciled, so retyping never casts
	// stale values. The reload below refills every column, and none of this
	// is visible outside the transaction.
	_, err = tx.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", dst))
	if err != nil {
		return dbError(op, err, errs.Parameter(mirror))
	}

	for _, statement := range reconcile(dst, sourceColumns, mirrorColumns) {
		if statement.storageType != "" {
			if err := checkStorageType(op, statement.storageType); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, statement.sql)
		if err != nil {
			return dbError(op, err, errs.Parameter(statement.column))
		}
	}

	cols := quoteAll(columnNames(sourceColumns))

	_, err = tx.ExecContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ORDER BY %s",
		dst, cols, cols, src, pq.QuoteIdentifier(service.SurrogateColumn),
	))
	if err != nil {
		return dbError(op, err, errs.Parameter(mirror))
	}

	err = tx.Commit()
	if err != nil {
		return dbError(op, err)
	}

	return nil
}

type alteration struct {
	column      string
	storageType string
	sql         string
}

// reconcile returns the statements that give mirror the columns and types
// of source.
func reconcile(mirror string, source, current []service.ColumnDescriptor) []alteration {
	var out []alteration

	for _, c := range source {
		col := pq.QuoteIdentifier(c.Name)

		existing, ok := findColumn(current, c.Name)
		switch {
		case !ok:
			out = append(out, alteration{
				column:      c.Name,
				storageType: c.StorageType,
				sql:         fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", mirror, col, c.StorageType),
			})
		case existing.StorageType != c.StorageType:
			out = append(out, alteration{
				column:      c.Name,
				storageType: c.StorageType,
				sql: fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::%s",
					mirror, col, c.StorageType, col, c.StorageType),
			})
		}
	}

	for _, c := range current {
		if _, ok := findColumn(source, c.Name); !ok {
			out = append(out, alteration{
				column: c.Name,
				sql:    fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", mirror, pq.QuoteIdentifier(c.Name)),
			})
		}
	}

	return out
}

func NewSyncStorage(db *database.Repo) *syncStorage {
	return &syncStorage{
		db: db,
	}
}
