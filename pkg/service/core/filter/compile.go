package filter

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/navikt/datavask-backend/pkg/service/core/cleanse"
)

// Matcher reports whether a cell value satisfies a predicate.
type Matcher func(v any) bool

const dateOnlyLen = len("2006-01-02")

// Compile turns p into a Matcher for a column of type t. It fails when the
// predicate has no meaning for the column, e.g. a relational operator on a
// string column or a value that cannot be read as the column type.
func Compile(p service.Predicate, t service.SemanticType) (Matcher, error) {
	if p.Kind == service.PredicateNull {
		return isNull, nil
	}

	switch t {
	case service.SemanticTypeInt, service.SemanticTypeFloat:
		return compileNumeric(p)
	case service.SemanticTypeDatetime:
		return compileDatetime(p)
	default:
		return compileString(p)
	}
}

func isNull(v any) bool {
	return v == nil
}

func compileNumeric(p service.Predicate) (Matcher, error) {
	switch p.Kind {
	case service.PredicateStructured:
		if p.Operator == service.OperatorContains {
			return nil, fmt.Errorf("operator %q is only defined for string columns", p.Operator)
		}

		want, err := toNumber(p.Value)
		if err != nil {
			return nil, err
		}

		switch p.Operator {
		case service.OperatorLessThan:
			return func(v any) bool {
				c, ok := want.compare(v)
				return ok && c < 0
			}, nil
		case service.OperatorGreaterThan:
			return func(v any) bool {
				c, ok := want.compare(v)
				return ok && c > 0
			}, nil
		}

		return nil, fmt.Errorf("unknown operator %q", p.Operator)
	case service.PredicateList:
		ints := make(map[int64]struct{}, len(p.Values))
		floats := make(map[float64]struct{}, len(p.Values))
		// Floats given as such, matched against integer cells.
		fractional := make(map[float64]struct{}, len(p.Values))
		matchNull := false

		for _, value := range p.Values {
			if value == nil {
				matchNull = true
				continue
			}

			n, err := toNumber(value)
			if err != nil {
				return nil, err
			}

			floats[n.f] = struct{}{}

			if n.isInt {
				ints[n.i] = struct{}{}
			} else {
				fractional[n.f] = struct{}{}
			}
		}

		return func(v any) bool {
			switch got := v.(type) {
			case nil:
				return matchNull
			case int64:
				if _, found := ints[got]; found {
					return true
				}

				_, found := fractional[float64(got)]

				return found
			case float64:
				_, found := floats[got]
				return found
			}

			return false
		}, nil
	default:
		want, err := toNumber(p.Value)
		if err != nil {
			return nil, err
		}

		return func(v any) bool {
			c, ok := want.compare(v)
			return ok && c == 0
		}, nil
	}
}

// number is a numeric predicate value. Integers keep their exact value so
// that they compare exactly with integer cells beyond 2^53.
type number struct {
	i     int64
	f     float64
	isInt bool
}

// compare orders the cell v against n. It is false for cells that are not
// numbers, and for NaN.
func (n number) compare(v any) (int, bool) {
	switch got := v.(type) {
	case int64:
		if n.isInt {
			return cmp.Compare(got, n.i), true
		}

		return cmp.Compare(float64(got), n.f), true
	case float64:
		if math.IsNaN(got) {
			return 0, false
		}

		return cmp.Compare(got, n.f), true
	}

	return 0, false
}

func intNumber(i int64) number {
	return number{i: i, f: float64(i), isInt: true}
}

func compileString(p service.Predicate) (Matcher, error) {
	switch p.Kind {
	case service.PredicateStructured:
		if p.Operator != service.OperatorContains {
			if p.Operator == service.OperatorLessThan || p.Operator == service.OperatorGreaterThan {
				return nil, fmt.Errorf("operator %q is not defined for string columns", p.Operator)
			}

			return nil, fmt.Errorf("unknown operator %q", p.Operator)
		}

		want, err := toText(p.Value)
		if err != nil {
			return nil, err
		}

		want = strings.ToLower(want)

		return func(v any) bool {
			if v == nil {
				return false
			}

			return strings.Contains(strings.ToLower(cellText(v)), want)
		}, nil
	case service.PredicateList:
		return nil, fmt.Errorf("list predicates are not defined for string columns")
	default:
		want, err := toText(p.Value)
		if err != nil {
			return nil, err
		}

		want = strings.TrimSpace(want)

		return func(v any) bool {
			if v == nil {
				return false
			}

			return strings.TrimSpace(cellText(v)) == want
		}, nil
	}
}

func compileDatetime(p service.Predicate) (Matcher, error) {
	switch p.Kind {
	case service.PredicateStructured:
		if p.Operator == service.OperatorContains {
			return nil, fmt.Errorf("operator %q is only defined for string columns", p.Operator)
		}

		want, _, err := toTime(p.Value)
		if err != nil {
			return nil, err
		}

		switch p.Operator {
		case service.OperatorLessThan:
			return func(v any) bool {
				got, ok := cellTime(v)
				return ok && got.Before(want)
			}, nil
		case service.OperatorGreaterThan:
			return func(v any) bool {
				got, ok := cellTime(v)
				return ok && got.After(want)
			}, nil
		}

		return nil, fmt.Errorf("unknown operator %q", p.Operator)
	case service.PredicateList:
		if len(p.Values) != 2 {
			return nil, fmt.Errorf("a datetime range needs exactly two values, got %d", len(p.Values))
		}

		start, _, err := toTime(p.Values[0])
		if err != nil {
			return nil, err
		}

		end, _, err := toTime(p.Values[1])
		if err != nil {
			return nil, err
		}

		return func(v any) bool {
			got, ok := cellTime(v)
			return ok && !got.Before(start) && !got.After(end)
		}, nil
	default:
		want, dateOnly, err := toTime(p.Value)
		if err != nil {
			return nil, err
		}

		if dateOnly {
			return func(v any) bool {
				got, ok := cellTime(v)
				if !ok {
					return false
				}

				y1, m1, d1 := got.Date()
				y2, m2, d2 := want.Date()

				return y1 == y2 && m1 == m2 && d1 == d2
			}, nil
		}

		return func(v any) bool {
			got, ok := cellTime(v)
			return ok && got.Equal(want)
		}, nil
	}
}

func toNumber(v any) (number, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return intNumber(i), nil
		}

		f, err := n.Float64()
		if err != nil {
			return number{}, err
		}

		return number{f: f}, nil
	case float64:
		return number{f: n}, nil
	case int64:
		return intNumber(n), nil
	case int:
		return intNumber(int64(n)), nil
	case string:
		s := strings.TrimSpace(n)

		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return intNumber(i), nil
		}

		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return number{}, fmt.Errorf("value %q is not a number", n)
		}

		return number{f: f}, nil
	}

	return number{}, fmt.Errorf("value %v of type %T is not a number", v, v)
}

func toText(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case bool:
		return strconv.FormatBool(s), nil
	}

	return "", fmt.Errorf("value %v of type %T cannot be compared to text", v, v)
}

// toTime parses a datetime predicate value and reports whether it was a
// plain calendar date.
func toTime(v any) (time.Time, bool, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false, fmt.Errorf("value %v of type %T is not a date or timestamp", v, v)
	}

	s = strings.TrimSpace(s)

	t, err := cleanse.ParseTime(s)
	if err != nil {
		return time.Time{}, false, err
	}

	return t, len(s) == dateOnlyLen, nil
}

func cellTime(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, false
	}

	return cleanse.WallClock(t), true
}

func cellText(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case time.Time:
		return s.Format(time.DateTime)
	}

	return fmt.Sprint(v)
}
