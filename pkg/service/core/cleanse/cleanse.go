// Package cleanse turns loosely formatted spreadsheet text into numbers and
// timestamps. Numeric cleansing never fails: anything that cannot be read as
// a number becomes zero. Timestamp cleansing fails on unparseable values.
package cleanse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

var (
	nonNumericRegexp = regexp.MustCompile(`[^0-9.\-]`)
	numericRegexp    = regexp.MustCompile(`^-?[0-9]*\.?[0-9]+$`)
	serialDayRegexp  = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

	// Day zero of spreadsheet serial dates.
	serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// Numeric returns the numeric text of raw, or "0" when there is none.
// Every character other than digits, '.' and '-' is dropped first, so
// "1,234abc" reads as "1234". A minus sign is only accepted as the first
// character, and at most once.
func Numeric(raw *string) string {
	if raw == nil {
		return "0"
	}

	s := strings.TrimSpace(*raw)
	if s == "" || s == "-" {
		return "0"
	}

	s = nonNumericRegexp.ReplaceAllString(s, "")

	if n := strings.Count(s, "-"); n > 1 || (n == 1 && !strings.HasPrefix(s, "-")) {
		return "0"
	}

	if !numericRegexp.MatchString(s) {
		return "0"
	}

	return s
}

// Decimal is Numeric parsed as an exact decimal.
func Decimal(raw *string) decimal.Decimal {
	d, err := decimal.NewFromString(Numeric(raw))
	if err != nil {
		return decimal.Zero
	}

	return d
}

// Int rounds the cleansed value half away from zero. Values outside the
// int64 range are an error.
func Int(raw *string) (int64, error) {
	d := Decimal(raw).Round(0)

	if d.LessThan(minInt64) || d.GreaterThan(maxInt64) {
		return 0, fmt.Errorf("value %s is out of range for an integer", d.String())
	}

	return d.IntPart(), nil
}

func Float(raw *string) float64 {
	f, _ := Decimal(raw).Float64()

	return f
}

// Datetime reads raw as a point in time. A plain number is a spreadsheet
// serial day, anything else is parsed as a date or timestamp. NULL and
// blank values stay NULL.
func Datetime(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}

	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil, nil
	}

	if serialDayRegexp.MatchString(s) {
		days, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing serial day %q: %w", s, err)
		}

		t := SerialDate(days)

		return &t, nil
	}

	t, err := ParseTime(s)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// SerialDate converts a spreadsheet serial day count, where the fraction is
// the time of day, to a timestamp with microsecond precision.
func SerialDate(days float64) time.Time {
	whole := math.Floor(days)
	micros := math.Round((days - whole) * float64(24*time.Hour/time.Microsecond))

	return serialEpoch.AddDate(0, 0, int(whole)).Add(time.Duration(micros) * time.Microsecond)
}

// ParseTime parses a timestamp in any of the common layouts. The wall clock
// of the value is kept and returned in UTC, since stored timestamps carry no
// zone.
func ParseTime(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %q as a timestamp: %w", s, err)
	}

	return WallClock(t), nil
}

// WallClock drops the zone of t, keeping its clock reading.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
