package storage

import (
	"github.com/navikt/datavask-backend/pkg/database"
	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/navikt/datavask-backend/pkg/service/core/storage/postgres"
)

type Stores struct {
	CoercionStorage   service.CoercionStorage
	ColumnsStorage    service.ColumnsStorage
	DatasetStorage    service.DatasetStorage
	SchemaStorage     service.SchemaStorage
	SnapshotStorage   service.SnapshotStorage
	StatisticsStorage service.StatisticsStorage
	SyncStorage       service.SyncStorage
}

func NewStores(db *database.Repo) *Stores {
	return &Stores{
		CoercionStorage:   postgres.NewCoercionStorage(db),
		ColumnsStorage:    postgres.NewColumnsStorage(db),
		DatasetStorage:    postgres.NewDatasetStorage(db.Querier, db),
		SchemaStorage:     postgres.NewSchemaStorage(db),
		SnapshotStorage:   postgres.NewSnapshotStorage(db),
		StatisticsStorage: postgres.NewStatisticsStorage(db),
		SyncStorage:       postgres.NewSyncStorage(db),
	}
}
