package core

import (
	"context"
	"fmt"

	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
)

var _ service.SyncService = &syncService{}

const SyncStatusSuccess = "success"

type syncService struct {
	datasetStorage service.DatasetStorage
	syncStorage    service.SyncStorage
	metrics        *Metrics
}

// Sync resets the working copy of dataset to the canonical table.
func (s *syncService) Sync(ctx context.Context, dataset string) (*service.SyncResult, error) {
	const op errs.Op = "syncService.Sync"

	ds, err := s.datasetStorage.GetDataset(ctx, dataset)
	if err != nil {
		return nil, errs.E(op, err)
	}

	mirror := service.WorkingCopyName(ds.Name)

	err = s.syncStorage.Sync(ctx, ds.Name, mirror)
	if err != nil {
		return nil, errs.E(op, err)
	}

	s.metrics.TableReloads.WithLabelValues("sync").Inc()

	_, err = s.datasetStorage.TouchDataset(ctx, ds.Name)
	if err != nil {
		return nil, errs.E(op, err)
	}

	return &service.SyncResult{
		Status:  SyncStatusSuccess,
		Message: fmt.Sprintf("%s is in sync with %s", mirror, ds.Name),
	}, nil
}

func NewSyncService(datasetStorage service.DatasetStorage, syncStorage service.SyncStorage, metrics *Metrics) *syncService {
	return &syncService{
		datasetStorage: datasetStorage,
		syncStorage:    syncStorage,
		metrics:        metrics,
	}
}
