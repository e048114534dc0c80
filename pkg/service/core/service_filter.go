package core

import (
	"context"
	"fmt"

	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/navikt/datavask-backend/pkg/service/core/filter"
	"github.com/rs/zerolog"
)

var _ service.FilterService = &filterService{}

type filterService struct {
	datasetStorage  service.DatasetStorage
	snapshotStorage service.SnapshotStorage
	metrics         *Metrics
	log             zerolog.Logger
}

func (s *filterService) Filter(ctx context.Context, dataset string, input service.FilterRequest) (*service.FilterResult, error) {
	const op errs.Op = "filterService.Filter"

	err := input.Validate()
	if err != nil {
		return nil, errs.E(errs.Validation, op, err)
	}

	ds, err := s.datasetStorage.GetDataset(ctx, dataset)
	if err != nil {
		return nil, errs.E(op, err)
	}

	table := service.WorkingCopyName(ds.Name)

	snapshot, err := s.snapshotStorage.Snapshot(ctx, table)
	if err != nil {
		return nil, errs.E(op, err)
	}

	result := filter.Apply(snapshot, input.Filters)

	for _, o := range result.Outcomes {
		switch o.Status {
		case filter.StatusDropped:
			s.metrics.DroppedPredicates.Inc()
			s.log.Info().Err(o.Err).Str("table", table).Str("column", o.Column).Msg("dropping filter predicate")
		case filter.StatusSkipped:
			s.log.Debug().Str("table", table).Str("column", o.Column).Msg("ignoring filter on unknown column")
		}
	}

	err = s.snapshotStorage.Replace(ctx, table, result.Snapshot)
	if err != nil {
		return nil, errs.E(op, err)
	}

	s.metrics.TableReloads.WithLabelValues("filter").Inc()

	_, err = s.datasetStorage.TouchDataset(ctx, ds.Name)
	if err != nil {
		return nil, errs.E(op, err)
	}

	filtered := len(result.Snapshot.Rows)

	return &service.FilterResult{
		Message:       fmt.Sprintf("%d of %d rows match the filters", filtered, len(snapshot.Rows)),
		FilteredCount: filtered,
		Data:          result.Snapshot.Records(),
	}, nil
}

func NewFilterService(
	datasetStorage service.DatasetStorage,
	snapshotStorage service.SnapshotStorage,
	metrics *Metrics,
	log zerolog.Logger,
) *filterService {
	return &filterService{
		datasetStorage:  datasetStorage,
		snapshotStorage: snapshotStorage,
		metrics:         metrics,
		log:             log,
	}
}
