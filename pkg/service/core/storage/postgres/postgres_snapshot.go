package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/navikt/datavask-backend/pkg/database"
	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
)

var _ service.SnapshotStorage = &snapshotStorage{}

type snapshotStorage struct {
	db *database.Repo
}

func (s *snapshotStorage) Snapshot(ctx context.Context, table string) (*service.Snapshot, error) {
	const op errs.Op = "snapshotStorage.Snapshot"

	if err := checkIdentifiers(op, table); err != nil {
		return nil, err
	}

	columns, err := tableColumns(ctx, s.db.GetDB(), s.db.Schema(), table)
	if err != nil {
		return nil, errs.E(op, err)
	}

	snapshot := &service.Snapshot{
		Columns: make([]service.SnapshotColumn, len(columns)),
		Rows:    [][]any{},
	}

	for i, c := range columns {
		snapshot.Columns[i] = service.SnapshotColumn{
			Name:        c.Name,
			StorageType: c.StorageType,
			Declared:    c.SemanticType,
		}
	}

	rows, err := s.db.GetDB().QueryContext(ctx, fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY %s",
		quoteAll(columnNames(columns)), qualified(s.db.Schema(), table), pq.QuoteIdentifier(service.SurrogateColumn),
	))
	if err != nil {
		return nil, dbError(op, err, errs.Parameter(table))
	}
	defer rows.Close()

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))

		for i := range values {
			ptrs[i] = &values[i]
		}

		err := rows.Scan(ptrs...)
		if err != nil {
			return nil, dbError(op, err)
		}

		for i, c := range columns {
			values[i] = normalize(values[i], c.StorageType)
		}

		snapshot.Rows = append(snapshot.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, dbError(op, err)
	}

	return snapshot, nil
}

// normalize turns a scanned value into one of the types a snapshot holds.
func normalize(v any, storageType string) any {
	switch x := v.(type) {
	case nil, int64, float64, bool, string:
		return x
	case time.Time:
		switch service.BaseStorageType(storageType) {
		case "timestamp with time zone":
			return x.UTC()
		case "time without time zone", "time with time zone", "time":
			return x.Format("15:04:05.999999")
		}

		return time.Date(x.Year(), x.Month(), x.Day(), x.Hour(), x.Minute(), x.Second(), x.Nanosecond(), time.UTC)
	case []byte:
		if service.BaseStorageType(storageType) == "numeric" {
			if f, err := strconv.ParseFloat(string(x), 64); err == nil {
				return f
			}
		}

		return string(x)
	}

	return fmt.Sprint(v)
}

func (s *snapshotStorage) Replace(ctx context.Context, table string, snapshot *service.Snapshot) error {
	const op errs.Op = "snapshotStorage.Replace"

	if err := checkIdentifiers(op, table); err != nil {
		return err
	}

	names := make([]string, len(snapshot.Columns))
	for i, c := range snapshot.Columns {
		names[i] = c.Name
	}

	if err := checkIdentifiers(op, names...); err != nil {
		return err
	}

	tx, err := s.db.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return dbError(op, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", qualified(s.db.Schema(), table)))
	if err != nil {
		return dbError(op, err, errs.Parameter(table))
	}

	err = copyRows(ctx, tx, s.db.Schema(), table, names, snapshot.Rows)
	if err != nil {
		return errs.E(op, err)
	}

	err = tx.Commit()
	if err != nil {
		return dbError(op, err)
	}

	return nil
}

// copyRows bulk loads rows into table with COPY.
func copyRows(ctx context.Context, tx preparer, schema, table string, columns []string, rows [][]any) error {
	const op errs.Op = "postgres.copyRows"

	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema(schema, table, columns...))
	if err != nil {
		return dbError(op, err, errs.Parameter(table))
	}

	for _, row := range rows {
		_, err = stmt.ExecContext(ctx, row...)
		if err != nil {
			_ = stmt.Close()
			return dbError(op, err, errs.Parameter(table))
		}
	}

	_, err = stmt.ExecContext(ctx)
	if err != nil {
		_ = stmt.Close()
		return dbError(op, err, errs.Parameter(table))
	}

	err = stmt.Close()
	if err != nil {
		return dbError(op, err)
	}

	return nil
}

func NewSnapshotStorage(db *database.Repo) *snapshotStorage {
	return &snapshotStorage{
		db: db,
	}
}
