package core_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/navikt/datavask-backend/pkg/service/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peopleSnapshot() *service.Snapshot {
	return &service.Snapshot{
		Columns: []service.SnapshotColumn{
			{Name: "id", StorageType: "bigint", Declared: service.SemanticTypeInt},
			{Name: "name", StorageType: "text", Declared: service.SemanticTypeString},
			{Name: "age", StorageType: "bigint", Declared: service.SemanticTypeInt},
		},
		Rows: [][]any{
			{int64(1), "Ada", int64(20)},
			{int64(2), "Bob", int64(30)},
			{int64(3), "Cy", int64(40)},
			{int64(4), "Di", nil},
		},
	}
}

func filterRequest(t *testing.T, raw string) service.FilterRequest {
	t.Helper()

	var req service.FilterRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))

	return req
}

func TestFilterService_Filter(t *testing.T) {
	ctx := context.Background()

	datasets := new(DatasetStorageMock)
	datasets.On("GetDataset", ctx, "people").Return(&service.Dataset{Name: "people"}, nil)
	datasets.On("TouchDataset", ctx, "people").Return(int64(2), nil)

	snapshots := &memorySnapshots{tables: map[string]*service.Snapshot{"people_copy": peopleSnapshot()}}
	metrics := core.NewMetrics()

	svc := core.NewFilterService(datasets, snapshots, metrics, zerolog.Nop())

	result, err := svc.Filter(ctx, "people", filterRequest(t, `{"filters":{
		"age": {"operator": ">", "value": 25},
		"name": {"operator": "<", "value": 3},
		"unknown": "x"
	}}`))
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilteredCount)

	data, err := json.Marshal(result.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Bob","age":30},{"name":"Cy","age":40}]`, string(data))

	stored := snapshots.tables["people_copy"]
	assert.Equal(t, [][]any{
		{int64(2), "Bob", int64(30)},
		{int64(3), "Cy", int64(40)},
	}, stored.Rows)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DroppedPredicates))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TableReloads.WithLabelValues("filter")))
	datasets.AssertExpectations(t)
}

func TestFilterService_FilterEmptyResult(t *testing.T) {
	ctx := context.Background()

	datasets := new(DatasetStorageMock)
	datasets.On("GetDataset", ctx, "people").Return(&service.Dataset{Name: "people"}, nil)
	datasets.On("TouchDataset", ctx, "people").Return(int64(2), nil)

	snapshots := &memorySnapshots{tables: map[string]*service.Snapshot{"people_copy": peopleSnapshot()}}

	svc := core.NewFilterService(datasets, snapshots, core.NewMetrics(), zerolog.Nop())

	result, err := svc.Filter(ctx, "people", filterRequest(t, `{"filters":{"age":{"operator":">","value":100}}}`))
	require.NoError(t, err)

	assert.Equal(t, 0, result.FilteredCount)
	assert.Empty(t, result.Data)
	assert.Empty(t, snapshots.tables["people_copy"].Rows)
}

func TestFilterService_FilterUnknownDataset(t *testing.T) {
	ctx := context.Background()

	datasets := new(DatasetStorageMock)
	datasets.On("GetDataset", ctx, "ghosts").Return((*service.Dataset)(nil), errs.E(errs.NotExist, errs.Op("datasetStorage.GetDataset")))

	svc := core.NewFilterService(datasets, &memorySnapshots{}, core.NewMetrics(), zerolog.Nop())

	_, err := svc.Filter(ctx, "ghosts", filterRequest(t, `{"filters":{"age":1}}`))
	assert.True(t, errs.KindIs(errs.NotExist, err))
}
