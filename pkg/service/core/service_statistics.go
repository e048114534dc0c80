package core

import (
	"context"

	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
)

var _ service.StatisticsService = &statisticsService{}

type statisticsService struct {
	datasetStorage    service.DatasetStorage
	statisticsStorage service.StatisticsStorage
}

func (s *statisticsService) GetStatistics(ctx context.Context, dataset string) (*service.Statistics, error) {
	const op errs.Op = "statisticsService.GetStatistics"

	ds, err := s.datasetStorage.GetDataset(ctx, dataset)
	if err != nil {
		return nil, errs.E(op, err)
	}

	stats, err := s.statisticsStorage.GetStatistics(ctx, service.WorkingCopyName(ds.Name), ds.Revision)
	if err != nil {
		return nil, errs.E(op, err)
	}

	return stats, nil
}

func NewStatisticsService(datasetStorage service.DatasetStorage, statisticsStorage service.StatisticsStorage) *statisticsService {
	return &statisticsService{
		datasetStorage:    datasetStorage,
		statisticsStorage: statisticsStorage,
	}
}
