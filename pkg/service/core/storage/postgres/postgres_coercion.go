package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/lithammer/shortuuid/v4"
	"github.com/navikt/datavask-backend/pkg/database"
	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
)

var _ service.CoercionStorage = &coercionStorage{}

type coercionStorage struct {
	db *database.Repo
}

// castExpression is the USING expression that converts column to target.
func castExpression(column string, target service.SemanticType) string {
	switch target {
	case service.SemanticTypeInt:
		return fmt.Sprintf("ROUND(%s::NUMERIC)::BIGINT", column)
	case service.SemanticTypeFloat:
		return fmt.Sprintf("%s::DOUBLE PRECISION", column)
	case service.SemanticTypeDatetime:
		return fmt.Sprintf("%s::TIMESTAMP WITHOUT TIME ZONE", column)
	default:
		return fmt.Sprintf("%s::TEXT", column)
	}
}

func (s *coercionStorage) CastColumn(ctx context.Context, table, column string, target service.SemanticType) error {
	const op errs.Op = "coercionStorage.CastColumn"

	if err := checkIdentifiers(op, table, column); err != nil {
		return err
	}

	tx, err := s.db.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return dbError(op, err)
	}
	defer tx.Rollback()

	col := pq.QuoteIdentifier(column)

	_, err = tx.ExecContext(ctx, fmt.Sprintf(
		"ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s",
		qualified(s.db.Schema(), table), col, target.StorageType(), castExpression(col, target),
	))
	if err != nil {
		return dbError(op, err, errs.Parameter(column))
	}

	err = tx.Commit()
	if err != nil {
		return dbError(op, err)
	}

	return nil
}

type stagedValue struct {
	id    int64
	value any
}

func (s *coercionStorage) RewriteColumn(ctx context.Context, table, column string, target service.SemanticType, convert service.ConvertFunc) error {
	const op errs.Op = "coercionStorage.RewriteColumn"

	if err := checkIdentifiers(op, table, column); err != nil {
		return err
	}

	tx, err := s.db.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return dbError(op, err)
	}
	defer tx.Rollback()

	values, err := s.convertedValues(ctx, tx, table, column, convert)
	if err != nil {
		return errs.E(op, err)
	}

	staging := "staging_" + strings.ToLower(shortuuid.New())
	storageType := target.StorageType()

	_, err = tx.ExecContext(ctx, fmt.Sprintf(
		"CREATE TEMPORARY TABLE %s (%s BIGINT PRIMARY KEY, %s %s) ON COMMIT DROP",
		pq.QuoteIdentifier(staging), pq.QuoteIdentifier(service.SurrogateColumn), pq.QuoteIdentifier("value"), storageType,
	))
	if err != nil {
		return dbError(op, err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(staging, service.SurrogateColumn, "value"))
	if err != nil {
		return dbError(op, err)
	}

	for _, v := range values {
		_, err = stmt.ExecContext(ctx, v.id, v.value)
		if err != nil {
			_ = stmt.Close()
			return dbError(op, err, errs.Parameter(column))
		}
	}

	_, err = stmt.ExecContext(ctx)
	if err != nil {
		_ = stmt.Close()
		return dbError(op, err, errs.Parameter(column))
	}

	err = stmt.Close()
	if err != nil {
		return dbError(op, err)
	}

	tbl := qualified(s.db.Schema(), table)
	col := pq.QuoteIdentifier(column)
	id := pq.QuoteIdentifier(service.SurrogateColumn)

	// Retyping in place keeps the position of the column in the table.
	_, err = tx.ExecContext(ctx, fmt.Sprintf(
		"ALTER TABLE %s ALTER COLUMN %s TYPE %s USING NULL::%s",
		tbl, col, storageType, storageType,
	))
	if err != nil {
		return dbError(op, err, errs.Parameter(column))
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(
		"UPDATE %s AS t SET %s = s.%s FROM %s AS s WHERE t.%s = s.%s",
		tbl, col, pq.QuoteIdentifier("value"), pq.QuoteIdentifier(staging), id, id,
	))
	if err != nil {
		return dbError(op, err, errs.Parameter(column))
	}

	err = tx.Commit()
	if err != nil {
		return dbError(op, err)
	}

	return nil
}

// convertedValues reads column as text in surrogate key order and converts
// every value. The first value that does not convert aborts the column.
func (s *coercionStorage) convertedValues(ctx context.Context, tx *sql.Tx, table, column string, convert service.ConvertFunc) ([]stagedValue, error) {
	const op errs.Op = "coercionStorage.convertedValues"

	rows, err := tx.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s, %s::TEXT FROM %s ORDER BY %s",
		pq.QuoteIdentifier(service.SurrogateColumn), pq.QuoteIdentifier(column),
		qualified(s.db.Schema(), table), pq.QuoteIdentifier(service.SurrogateColumn),
	))
	if err != nil {
		return nil, dbError(op, err, errs.Parameter(column))
	}
	defer rows.Close()

	var values []stagedValue

	for rows.Next() {
		var (
			id  int64
			raw sql.NullString
		)

		err := rows.Scan(&id, &raw)
		if err != nil {
			return nil, dbError(op, err)
		}

		var in *string
		if raw.Valid {
			in = &raw.String
		}

		v, err := convert(in)
		if err != nil {
			return nil, errs.E(errs.Conversion, op, errs.Parameter(column),
				fmt.Errorf("column %s, row %d: %w", column, id, err))
		}

		values = append(values, stagedValue{id: id, value: v})
	}

	if err := rows.Err(); err != nil {
		return nil, dbError(op, err)
	}

	return values, nil
}

func NewCoercionStorage(db *database.Repo) *coercionStorage {
	return &coercionStorage{
		db: db,
	}
}
