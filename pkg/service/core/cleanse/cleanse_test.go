package cleanse_test

import (
	"testing"
	"time"

	"github.com/navikt/datavask-backend/pkg/service/core/cleanse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestNumeric(t *testing.T) {
	testCases := []struct {
		name   string
		raw    *string
		expect string
	}{
		{name: "null", raw: nil, expect: "0"},
		{name: "empty", raw: strPtr(""), expect: "0"},
		{name: "lone minus", raw: strPtr("-"), expect: "0"},
		{name: "whitespace", raw: strPtr("   "), expect: "0"},
		{name: "thousands separator and letters", raw: strPtr("1,234abc"), expect: "1234"},
		{name: "minus inside", raw: strPtr("-12-34"), expect: "0"},
		{name: "minus at end", raw: strPtr("12-"), expect: "0"},
		{name: "negative", raw: strPtr("-42"), expect: "-42"},
		{name: "percentage", raw: strPtr("12.5%"), expect: "12.5"},
		{name: "currency", raw: strPtr("kr 1 999,-"), expect: "0"},
		{name: "leading dot", raw: strPtr("-.5"), expect: "-.5"},
		{name: "trailing dot", raw: strPtr("5."), expect: "0"},
		{name: "two dots", raw: strPtr("1.2.3"), expect: "0"},
		{name: "letters only", raw: strPtr("abc"), expect: "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, cleanse.Numeric(tc.raw))
		})
	}
}

func TestInt(t *testing.T) {
	testCases := []struct {
		name      string
		raw       *string
		expect    int64
		expectErr bool
	}{
		{name: "plain", raw: strPtr("1,234abc"), expect: 1234},
		{name: "round half up", raw: strPtr("2.5"), expect: 3},
		{name: "round half away from zero", raw: strPtr("-2.5"), expect: -3},
		{name: "round down", raw: strPtr("2.49"), expect: 2},
		{name: "garbage", raw: strPtr("n/a"), expect: 0},
		{name: "null", raw: nil, expect: 0},
		{name: "overflow", raw: strPtr("99999999999999999999"), expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := cleanse.Int(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expect, got)
		})
	}
}

func TestFloat(t *testing.T) {
	assert.Equal(t, 1234.5, cleanse.Float(strPtr("1,234.5 NOK")))
	assert.Equal(t, 0.0, cleanse.Float(strPtr("-")))
	assert.Equal(t, -0.25, cleanse.Float(strPtr("-0.25")))
}

func TestDatetime(t *testing.T) {
	testCases := []struct {
		name      string
		raw       *string
		expect    *time.Time
		expectErr bool
	}{
		{
			name:   "null",
			raw:    nil,
			expect: nil,
		},
		{
			name:   "blank",
			raw:    strPtr("  "),
			expect: nil,
		},
		{
			name:   "serial day",
			raw:    strPtr("44197"),
			expect: timePtr(time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:   "serial day with time of day",
			raw:    strPtr("44197.5"),
			expect: timePtr(time.Date(2021, time.January, 1, 12, 0, 0, 0, time.UTC)),
		},
		{
			name:   "iso date",
			raw:    strPtr("2023-05-17"),
			expect: timePtr(time.Date(2023, time.May, 17, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:   "iso timestamp",
			raw:    strPtr("2023-05-17 13:45:10"),
			expect: timePtr(time.Date(2023, time.May, 17, 13, 45, 10, 0, time.UTC)),
		},
		{
			name:   "zone offset keeps wall clock",
			raw:    strPtr("2023-05-17T13:45:10+02:00"),
			expect: timePtr(time.Date(2023, time.May, 17, 13, 45, 10, 0, time.UTC)),
		},
		{
			name:      "garbage",
			raw:       strPtr("not a date"),
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := cleanse.Datetime(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)

			if tc.expect == nil {
				assert.Nil(t, got)
				return
			}

			require.NotNil(t, got)
			assert.True(t, tc.expect.Equal(*got), "expected %s, got %s", tc.expect, got)
		})
	}
}

func TestSerialDate(t *testing.T) {
	assert.Equal(t, time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC), cleanse.SerialDate(1))
	assert.Equal(t, time.Date(2021, time.January, 1, 6, 0, 0, 0, time.UTC), cleanse.SerialDate(44197.25))
}

func timePtr(t time.Time) *time.Time {
	return &t
}
