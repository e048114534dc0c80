package core

import (
	"context"
	"fmt"

	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/navikt/datavask-backend/pkg/service/core/reshape"
)

var _ service.ReshapeService = &reshapeService{}

type reshapeService struct {
	datasetStorage  service.DatasetStorage
	snapshotStorage service.SnapshotStorage
	metrics         *Metrics
}

// rewrite replaces the working copy of dataset with the result of fn.
func (s *reshapeService) rewrite(ctx context.Context, dataset, operation string, fn func(*service.Snapshot) (*service.Snapshot, error)) (before, after *service.Snapshot, err error) {
	const op errs.Op = "reshapeService.rewrite"

	ds, err := s.datasetStorage.GetDataset(ctx, dataset)
	if err != nil {
		return nil, nil, errs.E(op, err)
	}

	table := service.WorkingCopyName(ds.Name)

	before, err = s.snapshotStorage.Snapshot(ctx, table)
	if err != nil {
		return nil, nil, errs.E(op, err)
	}

	after, err = fn(before)
	if err != nil {
		return nil, nil, errs.E(op, err)
	}

	err = s.snapshotStorage.Replace(ctx, table, after)
	if err != nil {
		return nil, nil, errs.E(op, err)
	}

	s.metrics.TableReloads.WithLabelValues(operation).Inc()

	_, err = s.datasetStorage.TouchDataset(ctx, ds.Name)
	if err != nil {
		return nil, nil, errs.E(op, err)
	}

	return before, after, nil
}

func (s *reshapeService) HandleMissingValues(ctx context.Context, dataset string, input service.MissingValuesDto) (*service.MissingValuesResult, error) {
	const op errs.Op = "reshapeService.HandleMissingValues"

	err := input.Validate()
	if err != nil {
		return nil, errs.E(errs.Validation, op, err)
	}

	switch input.Action {
	case service.MissingRemove:
		before, after, err := s.rewrite(ctx, dataset, "remove_missing", func(snapshot *service.Snapshot) (*service.Snapshot, error) {
			return reshape.RemoveMissing(snapshot, input.Columns)
		})
		if err != nil {
			return nil, errs.E(op, err)
		}

		removed := len(before.Rows) - len(after.Rows)

		return &service.MissingValuesResult{
			Message:          fmt.Sprintf("removed %d rows with missing values", removed),
			ColumnsProcessed: input.Columns,
			RowsRemoved:      removed,
			RowsRemaining:    len(after.Rows),
		}, nil
	default:
		_, after, err := s.rewrite(ctx, dataset, "fill_missing", func(snapshot *service.Snapshot) (*service.Snapshot, error) {
			return reshape.Fill(snapshot, input.Columns, input.Method)
		})
		if err != nil {
			return nil, errs.E(op, err)
		}

		return &service.MissingValuesResult{
			Message:          fmt.Sprintf("filled missing values using %s", input.Method),
			ColumnsProcessed: input.Columns,
			RowsRemaining:    len(after.Rows),
		}, nil
	}
}

func (s *reshapeService) RemoveDuplicates(ctx context.Context, dataset string, input service.DuplicatesDto) (*service.DuplicatesResult, error) {
	const op errs.Op = "reshapeService.RemoveDuplicates"

	before, after, err := s.rewrite(ctx, dataset, "remove_duplicates", func(snapshot *service.Snapshot) (*service.Snapshot, error) {
		return reshape.RemoveDuplicates(snapshot, input.Columns)
	})
	if err != nil {
		return nil, errs.E(op, err)
	}

	removed := len(before.Rows) - len(after.Rows)

	return &service.DuplicatesResult{
		Message:       fmt.Sprintf("removed %d duplicate rows", removed),
		RowsRemoved:   removed,
		RowsRemaining: len(after.Rows),
	}, nil
}

func NewReshapeService(datasetStorage service.DatasetStorage, snapshotStorage service.SnapshotStorage, metrics *Metrics) *reshapeService {
	return &reshapeService{
		datasetStorage:  datasetStorage,
		snapshotStorage: snapshotStorage,
		metrics:         metrics,
	}
}
