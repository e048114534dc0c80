package core_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/navikt/datavask-backend/pkg/service/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ColumnsStorageMock struct {
	mock.Mock
}

func (m *ColumnsStorageMock) DropColumns(ctx context.Context, table string, columns []string) error {
	args := m.Called(ctx, table, columns)
	return args.Error(0)
}

func (m *ColumnsStorageMock) RenameColumns(ctx context.Context, table string, renames []service.ColumnRename) error {
	args := m.Called(ctx, table, renames)
	return args.Error(0)
}

var peopleColumns = []service.ColumnDescriptor{
	{Name: "name", StorageType: "text", SemanticType: service.SemanticTypeString},
	{Name: "age", StorageType: "bigint", SemanticType: service.SemanticTypeInt},
}

func TestColumnsService_GetColumns(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name       string
		dataset    *service.Dataset
		datasetErr error
		expect     []service.ColumnDescriptor
		expectKind errs.Kind
	}{
		{
			name:    "Happy path",
			dataset: &service.Dataset{Name: "people"},
			expect:  peopleColumns,
		},
		{
			name:       "Unknown dataset",
			dataset:    nil,
			datasetErr: errs.E(errs.NotExist, errs.Op("datasetStorage.GetDataset"), fmt.Errorf("no rows")),
			expectKind: errs.NotExist,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			datasets := new(DatasetStorageMock)
			datasets.On("GetDataset", ctx, "people").Return(tc.dataset, tc.datasetErr)

			schema := new(SchemaStorageMock)
			schema.On("Describe", ctx, "people_copy").Return(peopleColumns, nil).Maybe()

			got, err := core.NewColumnsService(datasets, schema, new(ColumnsStorageMock)).GetColumns(ctx, "people")
			if tc.expectKind != 0 {
				require.Error(t, err)
				assert.True(t, errs.KindIs(tc.expectKind, err))
				schema.AssertNotCalled(t, "Describe", ctx, "people_copy")

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expect, got)
		})
	}
}

func TestColumnsService_RemoveColumns(t *testing.T) {
	ctx := context.Background()

	t.Run("Drops from the working copy and bumps the revision", func(t *testing.T) {
		datasets := new(DatasetStorageMock)
		datasets.On("GetDataset", ctx, "people").Return(&service.Dataset{Name: "people"}, nil)
		datasets.On("TouchDataset", ctx, "people").Return(int64(3), nil)

		schema := new(SchemaStorageMock)
		schema.On("Describe", ctx, "people_copy").Return(peopleColumns[:1], nil)

		columns := new(ColumnsStorageMock)
		columns.On("DropColumns", ctx, "people_copy", []string{"age"}).Return(nil)

		got, err := core.NewColumnsService(datasets, schema, columns).RemoveColumns(ctx, "people", service.RemoveColumnsDto{Columns: []string{"age"}})
		require.NoError(t, err)

		assert.Equal(t, &service.ColumnsResult{Message: "removed 1 columns", Columns: peopleColumns[:1]}, got)
		datasets.AssertExpectations(t)
		columns.AssertExpectations(t)
	})

	t.Run("No columns", func(t *testing.T) {
		_, err := core.NewColumnsService(new(DatasetStorageMock), new(SchemaStorageMock), new(ColumnsStorageMock)).
			RemoveColumns(ctx, "people", service.RemoveColumnsDto{})

		assert.True(t, errs.KindIs(errs.Validation, err))
	})

	t.Run("Unknown column", func(t *testing.T) {
		datasets := new(DatasetStorageMock)
		datasets.On("GetDataset", ctx, "people").Return(&service.Dataset{Name: "people"}, nil)

		columns := new(ColumnsStorageMock)
		columns.On("DropColumns", ctx, "people_copy", []string{"nope"}).
			Return(errs.E(errs.NotExist, errs.Op("columnsStorage.DropColumns"), fmt.Errorf("column nope does not exist")))

		_, err := core.NewColumnsService(datasets, new(SchemaStorageMock), columns).
			RemoveColumns(ctx, "people", service.RemoveColumnsDto{Columns: []string{"nope"}})

		assert.True(t, errs.KindIs(errs.NotExist, err))
		datasets.AssertNotCalled(t, "TouchDataset", ctx, "people")
	})
}

func TestColumnsService_RenameColumns(t *testing.T) {
	ctx := context.Background()

	datasets := new(DatasetStorageMock)
	datasets.On("GetDataset", ctx, "people").Return(&service.Dataset{Name: "people"}, nil)
	datasets.On("TouchDataset", ctx, "people").Return(int64(4), nil)

	renamed := []service.ColumnDescriptor{
		{Name: "full_name", StorageType: "text", SemanticType: service.SemanticTypeString},
		peopleColumns[1],
	}

	schema := new(SchemaStorageMock)
	schema.On("Describe", ctx, "people_copy").Return(renamed, nil)

	columns := new(ColumnsStorageMock)
	columns.On("RenameColumns", ctx, "people_copy", []service.ColumnRename{{From: "name", To: "full_name"}}).Return(nil)

	got, err := core.NewColumnsService(datasets, schema, columns).
		RenameColumns(ctx, "people", service.RenameColumnsDto{Renames: []service.ColumnRename{{From: "name", To: "Full Name"}}})
	require.NoError(t, err)

	assert.Equal(t, "renamed 1 columns", got.Message)
	assert.Equal(t, renamed, got.Columns)
	columns.AssertExpectations(t)
}
