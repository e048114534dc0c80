package filter_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/navikt/datavask-backend/pkg/service/core/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func people() *service.Snapshot {
	return &service.Snapshot{
		Columns: []service.SnapshotColumn{
			{Name: "id", StorageType: "bigint", Declared: service.SemanticTypeInt},
			{Name: "name", StorageType: "text", Declared: service.SemanticTypeString},
			{Name: "age", StorageType: "bigint", Declared: service.SemanticTypeInt},
			{Name: "score", StorageType: "double precision", Declared: service.SemanticTypeFloat},
			{Name: "joined", StorageType: "timestamp without time zone", Declared: service.SemanticTypeDatetime},
		},
		Rows: [][]any{
			{int64(1), "Kari Nordmann", int64(20), 1.5, date(2021, time.January, 1)},
			{int64(2), "Ola Nordmann ", int64(30), nil, date(2021, time.March, 15)},
			{int64(3), "Per", int64(40), 3.25, nil},
			{int64(4), nil, nil, 4.0, time.Date(2021, time.March, 15, 12, 30, 0, 0, time.UTC)},
		},
	}
}

func spec(t *testing.T, raw string) service.FilterSpecification {
	t.Helper()

	var s service.FilterSpecification

	require.NoError(t, json.Unmarshal([]byte(raw), &s))

	return s
}

func ids(s *service.Snapshot) []int64 {
	out := []int64{}

	for _, row := range s.Rows {
		out = append(out, row[0].(int64))
	}

	return out
}

func TestApply(t *testing.T) {
	testCases := []struct {
		name        string
		spec        string
		expect      []int64
		expectDrops int
	}{
		{
			name:   "greater than keeps order",
			spec:   `{"age": {"operator": ">", "value": 25}}`,
			expect: []int64{2, 3},
		},
		{
			name:   "less than with numeric string",
			spec:   `{"score": {"operator": "<", "value": "3.25"}}`,
			expect: []int64{1},
		},
		{
			name:   "numeric equality",
			spec:   `{"age": 30}`,
			expect: []int64{2},
		},
		{
			name:   "integer column matches float value",
			spec:   `{"age": 30.0}`,
			expect: []int64{2},
		},
		{
			name:   "numeric membership",
			spec:   `{"age": [20, 40, 99]}`,
			expect: []int64{1, 3},
		},
		{
			name:   "null marker",
			spec:   `{"score": null}`,
			expect: []int64{2},
		},
		{
			name:   "string equality is trimmed",
			spec:   `{"name": " Ola Nordmann"}`,
			expect: []int64{2},
		},
		{
			name:   "contains ignores case",
			spec:   `{"name": {"operator": "contains", "value": "NORD"}}`,
			expect: []int64{1, 2},
		},
		{
			name:   "date only matches the whole day",
			spec:   `{"joined": "2021-03-15"}`,
			expect: []int64{2, 4},
		},
		{
			name:   "exact instant",
			spec:   `{"joined": "2021-03-15 12:30:00"}`,
			expect: []int64{4},
		},
		{
			name:   "inclusive date range",
			spec:   `{"joined": ["2021-01-01", "2021-03-15"]}`,
			expect: []int64{1, 2},
		},
		{
			name:   "datetime after",
			spec:   `{"joined": {"operator": ">", "value": "2021-02-01"}}`,
			expect: []int64{2, 4},
		},
		{
			name:   "unknown column is ignored",
			spec:   `{"nope": 1, "age": {"operator": ">", "value": 25}}`,
			expect: []int64{2, 3},
		},
		{
			name:   "surrogate column is ignored",
			spec:   `{"id": 1}`,
			expect: []int64{1, 2, 3, 4},
		},
		{
			name:        "relational operator on string column is dropped",
			spec:        `{"name": {"operator": ">", "value": "a"}, "age": 40}`,
			expect:      []int64{3},
			expectDrops: 1,
		},
		{
			name:        "non numeric value is dropped",
			spec:        `{"age": "old"}`,
			expect:      []int64{1, 2, 3, 4},
			expectDrops: 1,
		},
		{
			name:        "unknown operator is dropped",
			spec:        `{"age": {"operator": "between", "value": 1}}`,
			expect:      []int64{1, 2, 3, 4},
			expectDrops: 1,
		},
		{
			name:        "contains on numeric column is dropped",
			spec:        `{"age": {"operator": "contains", "value": "2"}}`,
			expect:      []int64{1, 2, 3, 4},
			expectDrops: 1,
		},
		{
			name:   "predicates combine with and",
			spec:   `{"age": {"operator": ">", "value": 10}, "score": {"operator": ">", "value": 2}}`,
			expect: []int64{3},
		},
		{
			name:   "empty result",
			spec:   `{"age": {"operator": ">", "value": 100}}`,
			expect: []int64{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := filter.Apply(people(), spec(t, tc.spec))

			assert.Equal(t, tc.expect, ids(got.Snapshot))
			assert.Len(t, got.Dropped(), tc.expectDrops)
		})
	}
}

func TestApply_LargeIntegers(t *testing.T) {
	// 2^53 and 2^53+1 are the same float64.
	snapshot := &service.Snapshot{
		Columns: []service.SnapshotColumn{
			{Name: "id", StorageType: "bigint", Declared: service.SemanticTypeInt},
			{Name: "account", StorageType: "bigint", Declared: service.SemanticTypeInt},
		},
		Rows: [][]any{
			{int64(1), int64(9007199254740992)},
			{int64(2), int64(9007199254740993)},
		},
	}

	testCases := []struct {
		name   string
		spec   string
		expect []int64
	}{
		{
			name:   "equality",
			spec:   `{"account": 9007199254740993}`,
			expect: []int64{2},
		},
		{
			name:   "membership",
			spec:   `{"account": [9007199254740992]}`,
			expect: []int64{1},
		},
		{
			name:   "greater than",
			spec:   `{"account": {"operator": ">", "value": 9007199254740992}}`,
			expect: []int64{2},
		},
		{
			name:   "numeric string",
			spec:   `{"account": "9007199254740993"}`,
			expect: []int64{2},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := filter.Apply(snapshot, spec(t, tc.spec))

			assert.Equal(t, tc.expect, ids(got.Snapshot))
			assert.Empty(t, got.Dropped())
		})
	}
}

func TestApply_Idempotent(t *testing.T) {
	s := spec(t, `{"age": {"operator": ">", "value": 25}, "name": {"operator": "contains", "value": "o"}}`)

	once := filter.Apply(people(), s)
	twice := filter.Apply(once.Snapshot, s)

	assert.Equal(t, ids(once.Snapshot), ids(twice.Snapshot))
}

func TestApply_IdempotentWhenColumnBecomesAllNull(t *testing.T) {
	once := filter.Apply(people(), spec(t, `{"score": null}`))
	require.Equal(t, []int64{2}, ids(once.Snapshot))

	// Only nulls remain, the declared type keeps the column numeric so the
	// list predicate is still evaluated.
	twice := filter.Apply(once.Snapshot, spec(t, `{"score": [1.5, null]}`))
	assert.Equal(t, []int64{2}, ids(twice.Snapshot))
	assert.Empty(t, twice.Dropped())
}

func TestApply_EmptySnapshot(t *testing.T) {
	empty := people().WithRows(nil)

	got := filter.Apply(empty, spec(t, `{"age": 1}`))

	assert.Empty(t, got.Snapshot.Rows)
	assert.NotNil(t, got.Snapshot.Rows)
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		declared service.SemanticType
		values   []any
		expect   service.SemanticType
	}{
		{name: "ints", declared: service.SemanticTypeString, values: []any{int64(1), nil}, expect: service.SemanticTypeInt},
		{name: "mixed numbers", values: []any{int64(1), 2.5}, expect: service.SemanticTypeFloat},
		{name: "times", values: []any{date(2020, 1, 1)}, expect: service.SemanticTypeDatetime},
		{name: "strings", declared: service.SemanticTypeInt, values: []any{"1"}, expect: service.SemanticTypeString},
		{name: "bools", values: []any{true}, expect: service.SemanticTypeString},
		{name: "all null keeps declared", declared: service.SemanticTypeFloat, values: []any{nil, nil}, expect: service.SemanticTypeFloat},
		{name: "no values and no declared type", values: nil, expect: service.SemanticTypeString},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, filter.Classify(tc.declared, tc.values))
		})
	}
}

func TestPredicateDecoding(t *testing.T) {
	var s service.FilterSpecification

	err := json.Unmarshal([]byte(`{"b": {"value": 1}}`), &s)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"b": 1, "a": [1, "x"], "c": null, "d": {"operator": "<", "value": 3}}`), &s)
	require.NoError(t, err)
	require.Len(t, s, 4)

	assert.Equal(t, "b", s[0].Column)
	assert.Equal(t, service.PredicateScalar, s[0].Predicate.Kind)
	assert.Equal(t, json.Number("1"), s[0].Predicate.Value)
	assert.Equal(t, "a", s[1].Column)
	assert.Equal(t, service.PredicateList, s[1].Predicate.Kind)
	assert.Equal(t, service.PredicateNull, s[2].Predicate.Kind)
	assert.Equal(t, service.PredicateStructured, s[3].Predicate.Kind)
	assert.Equal(t, service.OperatorLessThan, s[3].Predicate.Operator)
}
