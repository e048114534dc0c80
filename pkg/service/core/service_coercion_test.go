package core_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/navikt/datavask-backend/pkg/service/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func column(name string, t service.SemanticType) *service.ColumnDescriptor {
	return &service.ColumnDescriptor{Name: name, StorageType: t.StorageType(), SemanticType: t}
}

func coercionRequest(t *testing.T, raw string) service.CoercionRequest {
	t.Helper()

	var req service.CoercionRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))

	return req
}

func TestCoercionService_Coerce(t *testing.T) {
	ctx := context.Background()
	people := &service.Dataset{Name: "people", Revision: 1}

	datasets := new(DatasetStorageMock)
	datasets.On("GetDataset", ctx, "people").Return(people, nil)
	datasets.On("TouchDataset", ctx, "people").Return(int64(2), nil).Once()

	schema := new(SchemaStorageMock)
	schema.On("TypeOf", ctx, "people_copy", "age").Return(column("age", service.SemanticTypeString), nil)
	schema.On("TypeOf", ctx, "people_copy", "score").Return(column("score", service.SemanticTypeInt), nil)
	schema.On("TypeOf", ctx, "people_copy", "name").Return(column("name", service.SemanticTypeString), nil)
	schema.On("TypeOf", ctx, "people_copy", "born").Return(column("born", service.SemanticTypeString), nil)

	conversionErr := errs.E(errs.Conversion, errs.Op("coercionStorage.RewriteColumn"), errs.Parameter("born"),
		fmt.Errorf(`column born, row 2: parsing "someday" as a timestamp`))

	storage := new(CoercionStorageMock)
	storage.On("RewriteColumn", ctx, "people_copy", "age", service.SemanticTypeInt, mock.Anything).Return(nil)
	storage.On("CastColumn", ctx, "people_copy", "score", service.SemanticTypeFloat).Return(nil)
	storage.On("RewriteColumn", ctx, "people_copy", "born", service.SemanticTypeDatetime, mock.Anything).Return(conversionErr)

	metrics := core.NewMetrics()
	svc := core.NewCoercionService(datasets, schema, storage, metrics, zerolog.Nop())

	report, err := svc.Coerce(ctx, "people", coercionRequest(t, `{"columns":{
		"age": "int",
		"score": "float",
		"name": "string",
		"born": "datetime",
		"city": "string"
	}}`))

	require.Error(t, err)
	assert.True(t, errs.KindIs(errs.Conversion, err))
	require.NotNil(t, report)

	assert.Equal(t, []string{"age", "score"}, report.UpdatedColumns)
	assert.Equal(t, []service.ColumnOutcome{
		{Column: "age", Target: service.SemanticTypeInt, Status: service.CoercionApplied},
		{Column: "score", Target: service.SemanticTypeFloat, Status: service.CoercionApplied},
		{Column: "name", Target: service.SemanticTypeString, Status: service.CoercionSkipped, Reason: "already correct type"},
		{Column: "born", Target: service.SemanticTypeDatetime, Status: service.CoercionFailed, Reason: `column born, row 2: parsing "someday" as a timestamp`},
		{Column: "city", Target: service.SemanticTypeString, Status: service.CoercionNotAttempted},
	}, report.Outcomes)
	assert.Equal(t, `column born, row 2: parsing "someday" as a timestamp`, report.Error)
	assert.Equal(t, errs.Conversion, report.FailureKind)
	assert.Equal(t, 422, report.StatusCode())

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CoercedColumns.WithLabelValues("applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CoercedColumns.WithLabelValues("failed")))

	datasets.AssertExpectations(t)
	schema.AssertExpectations(t)
	storage.AssertExpectations(t)
	schema.AssertNotCalled(t, "TypeOf", ctx, "people_copy", "city")
}

func TestCoercionService_CoerceFailureKinds(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name         string
		typeOfErr    error
		castErr      error
		expectKind   errs.Kind
		expectStatus int
	}{
		{
			name:         "Unknown column",
			typeOfErr:    errs.E(errs.NotExist, errs.Op("schemaStorage.TypeOf"), errs.Parameter("score"), fmt.Errorf("column score does not exist in people_copy")),
			expectKind:   errs.NotExist,
			expectStatus: 404,
		},
		{
			name:         "Database failure",
			castErr:      errs.E(errs.Database, errs.Op("coercionStorage.CastColumn"), errs.Parameter("score"), fmt.Errorf("canceling statement due to lock timeout")),
			expectKind:   errs.Database,
			expectStatus: 500,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			datasets := new(DatasetStorageMock)
			datasets.On("GetDataset", ctx, "people").Return(&service.Dataset{Name: "people"}, nil)
			datasets.On("TouchDataset", ctx, "people").Return(int64(2), nil)

			schema := new(SchemaStorageMock)
			schema.On("TypeOf", ctx, "people_copy", "age").Return(column("age", service.SemanticTypeString), nil)
			schema.On("TypeOf", ctx, "people_copy", "score").Return(column("score", service.SemanticTypeInt), tc.typeOfErr)

			storage := new(CoercionStorageMock)
			storage.On("RewriteColumn", ctx, "people_copy", "age", service.SemanticTypeInt, mock.Anything).Return(nil)
			storage.On("CastColumn", ctx, "people_copy", "score", service.SemanticTypeFloat).Return(tc.castErr).Maybe()

			svc := core.NewCoercionService(datasets, schema, storage, core.NewMetrics(), zerolog.Nop())

			report, err := svc.Coerce(ctx, "people", coercionRequest(t, `{"columns":{"age":"int","score":"float"}}`))
			require.Error(t, err)
			require.NotNil(t, report)

			assert.Equal(t, []string{"age"}, report.UpdatedColumns)
			assert.Equal(t, service.CoercionFailed, report.Outcomes[1].Status)
			assert.Equal(t, tc.expectKind, report.FailureKind)
			assert.Equal(t, tc.expectStatus, report.StatusCode())
		})
	}
}

func TestCoercionService_CoerceAllSkipped(t *testing.T) {
	ctx := context.Background()

	datasets := new(DatasetStorageMock)
	datasets.On("GetDataset", ctx, "people").Return(&service.Dataset{Name: "people"}, nil)

	schema := new(SchemaStorageMock)
	schema.On("TypeOf", ctx, "people_copy", "age").Return(column("age", service.SemanticTypeInt), nil)

	storage := new(CoercionStorageMock)

	svc := core.NewCoercionService(datasets, schema, storage, core.NewMetrics(), zerolog.Nop())

	report, err := svc.Coerce(ctx, "people", coercionRequest(t, `{"columns":{"age":"int"}}`))
	require.NoError(t, err)
	assert.Empty(t, report.UpdatedColumns)
	assert.Equal(t, service.CoercionSkipped, report.Outcomes[0].Status)
	assert.Equal(t, 200, report.StatusCode())

	datasets.AssertNotCalled(t, "TouchDataset", ctx, "people")
	storage.AssertNotCalled(t, "CastColumn", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCoercionService_CoerceValidation(t *testing.T) {
	ctx := context.Background()

	datasets := new(DatasetStorageMock)
	svc := core.NewCoercionService(datasets, new(SchemaStorageMock), new(CoercionStorageMock), core.NewMetrics(), zerolog.Nop())

	testCases := []struct {
		name string
		raw  string
	}{
		{name: "Unsupported target", raw: `{"columns":{"age":"int","active":"bool"}}`},
		{name: "No columns", raw: `{"columns":{}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			report, err := svc.Coerce(ctx, "people", coercionRequest(t, tc.raw))
			assert.Nil(t, report)
			assert.True(t, errs.KindIs(errs.Validation, err), "got %v", err)
		})
	}

	datasets.AssertNotCalled(t, "GetDataset", mock.Anything, mock.Anything)
}

func TestCoercionService_ConvertersUsedForRewrites(t *testing.T) {
	ctx := context.Background()

	datasets := new(DatasetStorageMock)
	datasets.On("GetDataset", ctx, "people").Return(&service.Dataset{Name: "people"}, nil)
	datasets.On("TouchDataset", ctx, "people").Return(int64(2), nil)

	schema := new(SchemaStorageMock)
	schema.On("TypeOf", ctx, "people_copy", mock.Anything).Return(column("x", service.SemanticTypeString), nil)

	converters := map[service.SemanticType]service.ConvertFunc{}

	storage := new(CoercionStorageMock)
	storage.On("RewriteColumn", ctx, "people_copy", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			converters[args.Get(3).(service.SemanticType)] = args.Get(4).(service.ConvertFunc)
		}).
		Return(nil)

	svc := core.NewCoercionService(datasets, schema, storage, core.NewMetrics(), zerolog.Nop())

	_, err := svc.Coerce(ctx, "people", coercionRequest(t, `{"columns":{"a":"int","b":"float","c":"datetime"}}`))
	require.NoError(t, err)

	str := func(s string) *string { return &s }

	v, err := converters[service.SemanticTypeInt](str("1,234abc"))
	require.NoError(t, err)
	assert.Equal(t, int64(1234), v)

	v, err = converters[service.SemanticTypeInt](str("2.5"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	v, err = converters[service.SemanticTypeFloat](nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = converters[service.SemanticTypeDatetime](str("44197"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC), v)

	v, err = converters[service.SemanticTypeDatetime](nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = converters[service.SemanticTypeDatetime](str("someday"))
	assert.Error(t, err)
}
