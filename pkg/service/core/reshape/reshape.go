// Package reshape implements the whole-table edits that work on an in-memory
// snapshot: filling or removing missing values and removing duplicate rows.
package reshape

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/navikt/datavask-backend/pkg/service/core/filter"
	"gonum.org/v1/gonum/stat"
)

// IsMissing reports whether v counts as a missing value.
func IsMissing(v any) bool {
	switch f := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(f)
	}

	return false
}

func columnIndexes(s *service.Snapshot, columns []string) ([]int, error) {
	const op errs.Op = "reshape.columnIndexes"

	idx := make([]int, 0, len(columns))

	for _, c := range columns {
		i := s.Index(c)
		if i < 0 || c == service.SurrogateColumn {
			return nil, errs.E(errs.NotExist, op, errs.Parameter(c), fmt.Errorf("column %s does not exist", c))
		}

		idx = append(idx, i)
	}

	return idx, nil
}

// RemoveMissing drops every row that lacks a value in one of columns.
func RemoveMissing(s *service.Snapshot, columns []string) (*service.Snapshot, error) {
	idx, err := columnIndexes(s, columns)
	if err != nil {
		return nil, err
	}

	kept := make([][]any, 0, len(s.Rows))

	for _, row := range s.Rows {
		complete := true

		for _, i := range idx {
			if IsMissing(row[i]) {
				complete = false
				break
			}
		}

		if complete {
			kept = append(kept, row)
		}
	}

	return s.WithRows(kept), nil
}

// CountMissing returns the number of missing values in columns.
func CountMissing(s *service.Snapshot, columns []string) (int, error) {
	idx, err := columnIndexes(s, columns)
	if err != nil {
		return 0, err
	}

	n := 0

	for _, row := range s.Rows {
		for _, i := range idx {
			if IsMissing(row[i]) {
				n++
			}
		}
	}

	return n, nil
}

// Fill replaces missing values in the numeric columns with a value derived
// by method. Integer columns receive rounded fill values.
func Fill(s *service.Snapshot, columns []string, method service.FillMethod) (*service.Snapshot, error) {
	const op errs.Op = "reshape.Fill"

	idx, err := columnIndexes(s, columns)
	if err != nil {
		return nil, errs.E(op, err)
	}

	types := filter.ClassifySnapshot(s)

	var notNumeric []string

	for n, i := range idx {
		if !types[i].Numeric() {
			notNumeric = append(notNumeric, columns[n])
		}
	}

	if len(notNumeric) > 0 {
		return nil, errs.E(errs.Validation, op, errs.Parameter(notNumeric[0]),
			fmt.Errorf("cannot fill non-numeric columns: %s", strings.Join(notNumeric, ", ")))
	}

	rows := make([][]any, len(s.Rows))
	for r, row := range s.Rows {
		rows[r] = append([]any(nil), row...)
	}

	for _, i := range idx {
		err := fillColumn(rows, i, types[i], method)
		if err != nil {
			return nil, errs.E(errs.Validation, op, errs.Parameter(s.Columns[i].Name), err)
		}
	}

	return s.WithRows(rows), nil
}

func fillColumn(rows [][]any, col int, typ service.SemanticType, method service.FillMethod) error {
	switch method {
	case service.FillFfill:
		var last any

		for _, row := range rows {
			if IsMissing(row[col]) {
				if last != nil {
					row[col] = last
				}

				continue
			}

			last = row[col]
		}

		return nil
	case service.FillBfill:
		var next any

		for r := len(rows) - 1; r >= 0; r-- {
			if IsMissing(rows[r][col]) {
				if next != nil {
					rows[r][col] = next
				}

				continue
			}

			next = rows[r][col]
		}

		return nil
	}

	present := presentNumbers(rows, col)

	var value float64

	switch method {
	case service.FillZero:
		value = 0
	case service.FillMean:
		if len(present) == 0 {
			return nil
		}

		value = stat.Mean(present, nil)
	case service.FillMedian:
		if len(present) == 0 {
			return nil
		}

		value = Median(present)
	case service.FillMode:
		if len(present) == 0 {
			return nil
		}

		value = mode(present)
	default:
		return fmt.Errorf("unknown fill method %q", method)
	}

	var fill any = value
	if typ == service.SemanticTypeInt {
		fill = int64(math.Round(value))
	}

	for _, row := range rows {
		if IsMissing(row[col]) {
			row[col] = fill
		}
	}

	return nil
}

func presentNumbers(rows [][]any, col int) []float64 {
	var out []float64

	for _, row := range rows {
		switch n := row[col].(type) {
		case int64:
			out = append(out, float64(n))
		case float64:
			if !math.IsNaN(n) {
				out = append(out, n)
			}
		}
	}

	return out
}

// Median returns the middle value of x, or the mean of the two middle
// values when len(x) is even. x is not modified.
func Median(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}

	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}

	return (sorted[mid-1] + sorted[mid]) / 2
}

// mode returns the most common value of x, the smallest one on ties.
func mode(x []float64) float64 {
	_, maxCount := stat.Mode(x, nil)

	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	for start := 0; start < len(sorted); {
		end := start
		for end < len(sorted) && sorted[end] == sorted[start] {
			end++
		}

		if float64(end-start) == maxCount {
			return sorted[start]
		}

		start = end
	}

	return math.NaN()
}

// RemoveDuplicates keeps the first row of every group of rows that are equal
// on columns, or on all user columns when columns is empty.
func RemoveDuplicates(s *service.Snapshot, columns []string) (*service.Snapshot, error) {
	if len(columns) == 0 {
		columns = s.UserColumns()
	}

	idx, err := columnIndexes(s, columns)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(s.Rows))
	kept := make([][]any, 0, len(s.Rows))

	for _, row := range s.Rows {
		key := rowKey(row, idx)

		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		kept = append(kept, row)
	}

	return s.WithRows(kept), nil
}

// CountDuplicates returns the number of rows that repeat an earlier row on
// all user columns.
func CountDuplicates(s *service.Snapshot) int {
	deduped, err := RemoveDuplicates(s, nil)
	if err != nil {
		return 0
	}

	return len(s.Rows) - len(deduped.Rows)
}

func rowKey(row []any, idx []int) string {
	var b strings.Builder

	for _, i := range idx {
		fmt.Fprintf(&b, "%T:%v\x00", row[i], row[i])
	}

	return b.String()
}
