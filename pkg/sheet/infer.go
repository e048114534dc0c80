package sheet

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Storage types assigned to inferred columns.
const (
	TypeBigint    = "BIGINT"
	TypeDouble    = "DOUBLE PRECISION"
	TypeBoolean   = "BOOLEAN"
	TypeTimestamp = "TIMESTAMP WITHOUT TIME ZONE"
	TypeText      = "TEXT"
)

type kind int

const (
	kindInt kind = iota
	kindFloat
	kindBool
	kindTime
	kindText
)

// InferTypes returns the narrowest storage type that holds every non-blank
// cell of each column, trying integers, decimals, booleans and timestamps in
// that order. Markers such as NaN and inf count as blank. Columns without
// any value are TEXT.
func (t *Table) InferTypes() []string {
	types := make([]string, len(t.Headers))

	for col := range t.Headers {
		candidates := []kind{kindInt, kindFloat, kindBool, kindTime}
		seen := false

		for _, row := range t.Rows {
			cell := strings.TrimSpace(row[col])
			if cell == "" || nonFinite(cell) {
				continue
			}

			seen = true

			remaining := candidates[:0]
			for _, k := range candidates {
				if is(k, cell) {
					remaining = append(remaining, k)
				}
			}

			candidates = remaining
			if len(candidates) == 0 {
				break
			}
		}

		k := kindText
		if seen && len(candidates) > 0 {
			k = candidates[0]
		}

		types[col] = storageType(k)
	}

	return types
}

// Values converts the cells of the table to values of the given storage
// types. Blank cells become nil, as do NaN and inf markers in columns that
// are not TEXT.
func (t *Table) Values(types []string) [][]any {
	out := make([][]any, len(t.Rows))

	for r, row := range t.Rows {
		values := make([]any, len(row))

		for c, cell := range row {
			values[c] = convert(strings.TrimSpace(cell), types[c])
		}

		out[r] = values
	}

	return out
}

func is(k kind, cell string) bool {
	switch k {
	case kindInt:
		_, err := strconv.ParseInt(cell, 10, 64)
		return err == nil
	case kindFloat:
		f, err := strconv.ParseFloat(cell, 64)
		return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	case kindBool:
		_, ok := parseBool(cell)
		return ok
	case kindTime:
		_, ok := parseTime(cell)
		return ok
	}

	return true
}

func storageType(k kind) string {
	switch k {
	case kindInt:
		return TypeBigint
	case kindFloat:
		return TypeDouble
	case kindBool:
		return TypeBoolean
	case kindTime:
		return TypeTimestamp
	}

	return TypeText
}

func convert(cell, storageType string) any {
	if cell == "" {
		return nil
	}

	if storageType != TypeText && nonFinite(cell) {
		return nil
	}

	switch storageType {
	case TypeBigint:
		if v, err := strconv.ParseInt(cell, 10, 64); err == nil {
			return v
		}
	case TypeDouble:
		if v, err := strconv.ParseFloat(cell, 64); err == nil {
			return v
		}
	case TypeBoolean:
		if v, ok := parseBool(cell); ok {
			return v
		}
	case TypeTimestamp:
		if v, ok := parseTime(cell); ok {
			return v
		}
	}

	return cell
}

// nonFinite reports whether cell spells NaN or an infinity, which is how
// missing values are often exported.
func nonFinite(cell string) bool {
	f, err := strconv.ParseFloat(cell, 64)
	return err == nil && (math.IsNaN(f) || math.IsInf(f, 0))
}

func parseBool(cell string) (bool, bool) {
	switch strings.ToLower(cell) {
	case "true":
		return true, true
	case "false":
		return false, true
	}

	return false, false
}

// parseTime only accepts cells that look like dates, so that words such as
// month names stay text.
func parseTime(cell string) (time.Time, bool) {
	if !strings.ContainsAny(cell, "-/.:") || !strings.ContainsAny(cell, "0123456789") {
		return time.Time{}, false
	}

	t, err := dateparse.ParseIn(cell, time.UTC)
	if err != nil {
		return time.Time{}, false
	}

	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), true
}
