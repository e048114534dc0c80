package core_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/stretchr/testify/mock"
)

type DatasetStorageMock struct {
	mock.Mock
}

func (m *DatasetStorageMock) CreateDataset(ctx context.Context, imp *service.Import) (*service.Dataset, error) {
	args := m.Called(ctx, imp)
	return args.Get(0).(*service.Dataset), args.Error(1)
}

func (m *DatasetStorageMock) GetDataset(ctx context.Context, name string) (*service.Dataset, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(*service.Dataset), args.Error(1)
}

func (m *DatasetStorageMock) GetDatasets(ctx context.Context) ([]*service.Dataset, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*service.Dataset), args.Error(1)
}

func (m *DatasetStorageMock) DeleteDataset(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *DatasetStorageMock) TouchDataset(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

type SchemaStorageMock struct {
	mock.Mock
}

func (m *SchemaStorageMock) Describe(ctx context.Context, table string) ([]service.ColumnDescriptor, error) {
	args := m.Called(ctx, table)
	return args.Get(0).([]service.ColumnDescriptor), args.Error(1)
}

func (m *SchemaStorageMock) TypeOf(ctx context.Context, table, column string) (*service.ColumnDescriptor, error) {
	args := m.Called(ctx, table, column)
	return args.Get(0).(*service.ColumnDescriptor), args.Error(1)
}

type CoercionStorageMock struct {
	mock.Mock
}

func (m *CoercionStorageMock) CastColumn(ctx context.Context, table, column string, target service.SemanticType) error {
	args := m.Called(ctx, table, column, target)
	return args.Error(0)
}

func (m *CoercionStorageMock) RewriteColumn(ctx context.Context, table, column string, target service.SemanticType, convert service.ConvertFunc) error {
	args := m.Called(ctx, table, column, target, convert)
	return args.Error(0)
}

// memorySnapshots keeps tables in memory, keyed by table name.
type memorySnapshots struct {
	tables map[string]*service.Snapshot
}

func (m *memorySnapshots) Snapshot(_ context.Context, table string) (*service.Snapshot, error) {
	s, ok := m.tables[table]
	if !ok {
		return nil, errs.E(errs.NotExist, errs.Parameter(table), fmt.Errorf("table %s does not exist", table))
	}

	return s.WithRows(append([][]any(nil), s.Rows...)), nil
}

func (m *memorySnapshots) Replace(_ context.Context, table string, snapshot *service.Snapshot) error {
	m.tables[table] = snapshot

	return nil
}

type memoryArchive struct {
	files map[string][]byte
}

func (m *memoryArchive) Store(_ context.Context, dataset, fileName string, data []byte) error {
	m.files[dataset+"/"+fileName] = data
	return nil
}

func (m *memoryArchive) Remove(_ context.Context, dataset string) error {
	for k := range m.files {
		if strings.HasPrefix(k, dataset+"/") {
			delete(m.files, k)
		}
	}

	return nil
}
