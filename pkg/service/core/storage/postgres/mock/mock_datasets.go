package mock

import (
	"context"

	"github.com/navikt/datavask-backend/pkg/database/gensql"
	"github.com/navikt/datavask-backend/pkg/service/core/storage/postgres"
	"github.com/stretchr/testify/mock"
)

var _ postgres.DatasetQueries = &DatasetQueriesMock{}

type DatasetQueriesMock struct {
	mock.Mock
}

func (m *DatasetQueriesMock) GetDataset(ctx context.Context, name string) (gensql.Dataset, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(gensql.Dataset), args.Error(1)
}

func (m *DatasetQueriesMock) GetDatasets(ctx context.Context) ([]gensql.Dataset, error) {
	args := m.Called(ctx)
	return args.Get(0).([]gensql.Dataset), args.Error(1)
}

func (m *DatasetQueriesMock) BumpDatasetRevision(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}
