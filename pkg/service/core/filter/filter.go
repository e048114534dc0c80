// Package filter evaluates filter specifications against an in-memory
// snapshot. Column types are taken from the data itself, and every
// predicate is applied on its own: a predicate that does not fit its column
// is dropped and the remaining predicates still apply.
package filter

import (
	"errors"
	"fmt"
	"time"

	"github.com/navikt/datavask-backend/pkg/service"
)

var ErrUnknownColumn = errors.New("unknown column")

type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
	StatusDropped Status = "dropped"
)

type Outcome struct {
	Column string
	Status Status
	Err    error
}

type Result struct {
	Snapshot *service.Snapshot
	Outcomes []Outcome
}

// Dropped returns the outcomes of predicates that could not be evaluated.
func (r *Result) Dropped() []Outcome {
	var dropped []Outcome

	for _, o := range r.Outcomes {
		if o.Status == StatusDropped {
			dropped = append(dropped, o)
		}
	}

	return dropped
}

// Apply filters the rows of s with spec, keeping the order of the rows. The
// types used for every predicate are inferred once from s before any
// predicate is applied.
func Apply(s *service.Snapshot, spec service.FilterSpecification) *Result {
	types := ClassifySnapshot(s)
	rows := s.Rows
	outcomes := make([]Outcome, 0, len(spec))

	for _, cp := range spec {
		idx := s.Index(cp.Column)
		if idx < 0 || cp.Column == service.SurrogateColumn {
			outcomes = append(outcomes, Outcome{Column: cp.Column, Status: StatusSkipped, Err: ErrUnknownColumn})
			continue
		}

		m, err := Compile(cp.Predicate, types[idx])
		if err != nil {
			outcomes = append(outcomes, Outcome{
				Column: cp.Column,
				Status: StatusDropped,
				Err:    fmt.Errorf("column %s of type %s: %w", cp.Column, types[idx], err),
			})

			continue
		}

		kept := make([][]any, 0, len(rows))

		for _, row := range rows {
			if m(row[idx]) {
				kept = append(kept, row)
			}
		}

		rows = kept

		outcomes = append(outcomes, Outcome{Column: cp.Column, Status: StatusApplied})
	}

	return &Result{
		Snapshot: s.WithRows(rows),
		Outcomes: outcomes,
	}
}

// ClassifySnapshot returns the runtime type of every column of s.
func ClassifySnapshot(s *service.Snapshot) []service.SemanticType {
	types := make([]service.SemanticType, len(s.Columns))

	for i, c := range s.Columns {
		values := make([]any, len(s.Rows))
		for j, row := range s.Rows {
			values[j] = row[i]
		}

		types[i] = Classify(c.Declared, values)
	}

	return types
}

// Classify infers the type of a column from its non-null values. A column
// without any non-null value keeps its declared type, which makes filtering
// an already filtered table give the same answer.
func Classify(declared service.SemanticType, values []any) service.SemanticType {
	var ints, floats, times, others int

	for _, v := range values {
		switch v.(type) {
		case nil:
		case int64:
			ints++
		case float64:
			floats++
		case time.Time:
			times++
		default:
			others++
		}
	}

	switch {
	case ints+floats+times+others == 0:
		if declared == "" {
			return service.SemanticTypeString
		}

		return declared
	case others > 0:
		return service.SemanticTypeString
	case times > 0 && ints+floats == 0:
		return service.SemanticTypeDatetime
	case times > 0:
		return service.SemanticTypeString
	case floats > 0:
		return service.SemanticTypeFloat
	default:
		return service.SemanticTypeInt
	}
}
