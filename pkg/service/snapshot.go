package service

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
)

type SnapshotColumn struct {
	Name        string
	StorageType string
	Declared    SemanticType
}

// Snapshot is a whole table in memory, ordered by the surrogate key. The
// surrogate column is part of Columns so that a reload keeps row identity.
// Values are int64, float64, string, time.Time, bool or nil.
type Snapshot struct {
	Columns []SnapshotColumn
	Rows    [][]any
}

// Index returns the position of column, or -1.
func (s *Snapshot) Index(column string) int {
	for i, c := range s.Columns {
		if c.Name == column {
			return i
		}
	}

	return -1
}

// WithRows returns a snapshot with the same columns and the given rows.
func (s *Snapshot) WithRows(rows [][]any) *Snapshot {
	if rows == nil {
		rows = [][]any{}
	}

	return &Snapshot{
		Columns: s.Columns,
		Rows:    rows,
	}
}

// UserColumns returns the column names without the surrogate column.
func (s *Snapshot) UserColumns() []string {
	var names []string

	for _, c := range s.Columns {
		if c.Name != SurrogateColumn {
			names = append(names, c.Name)
		}
	}

	return names
}

// Records returns the rows as user facing records.
func (s *Snapshot) Records() []Record {
	records := make([]Record, 0, len(s.Rows))

	var keep []int

	for i, c := range s.Columns {
		if c.Name != SurrogateColumn {
			keep = append(keep, i)
		}
	}

	names := s.UserColumns()

	for _, row := range s.Rows {
		values := make([]any, len(keep))
		for j, i := range keep {
			values[j] = row[i]
		}

		records = append(records, Record{columns: names, values: values})
	}

	return records
}

// Record is one row keyed by column name. It marshals as a JSON object with
// its keys in column order, and NaN or infinite values as null.
type Record struct {
	columns []string
	values  []any
}

func NewRecord(columns []string, values []any) Record {
	return Record{columns: columns, values: values}
}

func (r Record) Get(column string) (any, bool) {
	for i, c := range r.columns {
		if c == column {
			return r.values[i], true
		}
	}

	return nil, false
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}

		v := r.values[i]
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			v = nil
		}

		value, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

type SnapshotStorage interface {
	// Snapshot reads the whole table ordered by the surrogate key.
	Snapshot(ctx context.Context, table string) (*Snapshot, error)
	// Replace truncates table and loads the rows of snapshot in a single
	// transaction. An empty snapshot leaves an empty table.
	Replace(ctx context.Context, table string, snapshot *Snapshot) error
}

type SyncStorage interface {
	// Sync makes mirror an exact copy of source, columns and rows.
	Sync(ctx context.Context, source, mirror string) error
}

type SyncService interface {
	Sync(ctx context.Context, dataset string) (*SyncResult, error)
}

type SyncResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
