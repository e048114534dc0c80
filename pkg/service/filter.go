package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type FilterService interface {
	Filter(ctx context.Context, dataset string, input FilterRequest) (*FilterResult, error)
}

type PredicateKind int

const (
	// PredicateScalar tests equality against a single value.
	PredicateScalar PredicateKind = iota
	// PredicateList tests membership, or an inclusive range on datetime columns.
	PredicateList
	// PredicateStructured applies Operator to Value.
	PredicateStructured
	// PredicateNull matches missing values.
	PredicateNull
)

type Operator string

const (
	OperatorLessThan    Operator = "<"
	OperatorGreaterThan Operator = ">"
	OperatorContains    Operator = "contains"
)

// Predicate is a single column test. Numbers are kept as json.Number so
// integers survive decoding exactly.
type Predicate struct {
	Kind     PredicateKind
	Operator Operator
	Value    any
	Values   []any
}

func (p *Predicate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) == 0 {
		return fmt.Errorf("empty predicate")
	}

	switch data[0] {
	case 'n':
		*p = Predicate{Kind: PredicateNull}
		return nil
	case '[':
		var values []any

		if err := decodeNumbers(data, &values); err != nil {
			return err
		}

		*p = Predicate{Kind: PredicateList, Values: values}

		return nil
	case '{':
		var raw map[string]json.RawMessage

		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}

		op, ok := raw["operator"]
		if !ok {
			return fmt.Errorf("structured predicate must have an operator")
		}

		var operator Operator

		if err := json.Unmarshal(op, &operator); err != nil {
			return fmt.Errorf("operator must be a string: %w", err)
		}

		var value any

		if v, ok := raw["value"]; ok {
			if err := decodeNumbers(v, &value); err != nil {
				return err
			}
		}

		*p = Predicate{Kind: PredicateStructured, Operator: operator, Value: value}

		return nil
	default:
		var value any

		if err := decodeNumbers(data, &value); err != nil {
			return err
		}

		*p = Predicate{Kind: PredicateScalar, Value: value}

		return nil
	}
}

func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	return dec.Decode(v)
}

type ColumnPredicate struct {
	Column    string
	Predicate Predicate
}

// FilterSpecification holds the predicates of a filter request in request
// order. They are combined with AND.
type FilterSpecification []ColumnPredicate

func (s *FilterSpecification) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*s = nil
		return nil
	}

	var spec FilterSpecification

	err := decodeOrderedObject(data, func(key string, value json.RawMessage) error {
		var p Predicate

		if err := json.Unmarshal(value, &p); err != nil {
			return fmt.Errorf("predicate for %q: %w", key, err)
		}

		spec = append(spec, ColumnPredicate{Column: key, Predicate: p})

		return nil
	})
	if err != nil {
		return err
	}

	*s = spec

	return nil
}

type FilterRequest struct {
	Filters FilterSpecification `json:"filters"`
}

func (r FilterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Filters, validation.Required),
	)
}

type FilterResult struct {
	Message       string   `json:"message"`
	FilteredCount int      `json:"filteredCount"`
	Data          []Record `json:"data"`
}
