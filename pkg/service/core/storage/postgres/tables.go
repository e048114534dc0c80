package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/lib/pq"
	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// storageTypeRegexp is what we accept as a type name from format_type
// before it is put into a statement.
var storageTypeRegexp = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_ ,()\[\]".]*$`)

const (
	pqUndefinedTable  = "42P01"
	pqUndefinedColumn = "42703"
	pqDuplicateColumn = "42701"
	pqDuplicateTable  = "42P07"
	pqClassDataError  = "22"
	pqClassConnection = "08"
)

// dbError classifies err by what went wrong in the database, and wraps it
// with op and any further errs.E arguments.
func dbError(op errs.Op, err error, args ...any) error {
	return errs.E(append([]any{kindOf(err), op, err}, args...)...)
}

func kindOf(err error) errs.Kind {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == pqUndefinedTable, pqErr.Code == pqUndefinedColumn:
			return errs.NotExist
		case pqErr.Code == pqDuplicateColumn, pqErr.Code == pqDuplicateTable:
			return errs.Exist
		case pqErr.Code.Class() == pqClassDataError:
			return errs.Conversion
		case pqErr.Code.Class() == pqClassConnection:
			return errs.IO
		}

		return errs.Database
	}

	var netErr net.Error

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return errs.NotExist
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone), errors.As(err, &netErr):
		return errs.IO
	}

	return errs.Database
}

// qualified returns the quoted, schema qualified name of table.
func qualified(schema, table string) string {
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = pq.QuoteIdentifier(n)
	}

	return strings.Join(quoted, ", ")
}

func checkIdentifiers(op errs.Op, names ...string) error {
	for _, n := range names {
		if err := service.ValidateIdentifier(n); err != nil {
			return errs.E(errs.Validation, op, errs.Parameter(n), err)
		}
	}

	return nil
}

func checkStorageType(op errs.Op, storageType string) error {
	if !storageTypeRegexp.MatchString(storageType) {
		return errs.E(errs.Internal, op, fmt.Errorf("unexpected storage type %q", storageType))
	}

	return nil
}

const columnsQuery = `
SELECT a.attname, format_type(a.atttypid, a.atttypmod)
FROM pg_catalog.pg_attribute a
JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1
  AND c.relname = $2
  AND c.relkind IN ('r', 'p')
  AND a.attnum > 0
  AND NOT a.attisdropped
ORDER BY a.attnum`

// tableColumns returns every column of table, the surrogate column
// included, in ordinal order. A table that does not exist is NotExist.
func tableColumns(ctx context.Context, q queryer, schema, table string) ([]service.ColumnDescriptor, error) {
	const op errs.Op = "postgres.tableColumns"

	rows, err := q.QueryContext(ctx, columnsQuery, schema, table)
	if err != nil {
		return nil, dbError(op, err)
	}
	defer rows.Close()

	var columns []service.ColumnDescriptor

	for rows.Next() {
		var c service.ColumnDescriptor

		err := rows.Scan(&c.Name, &c.StorageType)
		if err != nil {
			return nil, dbError(op, err)
		}

		c.SemanticType = service.SemanticTypeFromStorage(c.StorageType)
		columns = append(columns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, dbError(op, err)
	}

	if len(columns) == 0 {
		return nil, errs.E(errs.NotExist, op, errs.Parameter(table), fmt.Errorf("table %s does not exist", table))
	}

	return columns, nil
}

func userColumns(columns []service.ColumnDescriptor) []service.ColumnDescriptor {
	out := make([]service.ColumnDescriptor, 0, len(columns))

	for _, c := range columns {
		if c.Name != service.SurrogateColumn {
			out = append(out, c)
		}
	}

	return out
}

func findColumn(columns []service.ColumnDescriptor, name string) (*service.ColumnDescriptor, bool) {
	for i := range columns {
		if columns[i].Name == name {
			return &columns[i], true
		}
	}

	return nil, false
}

func columnNames(columns []service.ColumnDescriptor) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}

	return names
}
