package core

import (
	"context"
	"fmt"

	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
)

var _ service.ColumnsService = &columnsService{}

type columnsService struct {
	datasetStorage service.DatasetStorage
	schemaStorage  service.SchemaStorage
	columnsStorage service.ColumnsStorage
}

func (s *columnsService) GetColumns(ctx context.Context, dataset string) ([]service.ColumnDescriptor, error) {
	const op errs.Op = "columnsService.GetColumns"

	ds, err := s.datasetStorage.GetDataset(ctx, dataset)
	if err != nil {
		return nil, errs.E(op, err)
	}

	columns, err := s.schemaStorage.Describe(ctx, service.WorkingCopyName(ds.Name))
	if err != nil {
		return nil, errs.E(op, err)
	}

	return columns, nil
}

func (s *columnsService) RemoveColumns(ctx context.Context, dataset string, input service.RemoveColumnsDto) (*service.ColumnsResult, error) {
	const op errs.Op = "columnsService.RemoveColumns"

	err := input.Validate()
	if err != nil {
		return nil, errs.E(errs.Validation, op, err)
	}

	ds, err := s.datasetStorage.GetDataset(ctx, dataset)
	if err != nil {
		return nil, errs.E(op, err)
	}

	table := service.WorkingCopyName(ds.Name)

	err = s.columnsStorage.DropColumns(ctx, table, input.Columns)
	if err != nil {
		return nil, errs.E(op, err)
	}

	return s.changed(ctx, ds.Name, fmt.Sprintf("removed %d columns", len(input.Columns)))
}

func (s *columnsService) RenameColumns(ctx context.Context, dataset string, input service.RenameColumnsDto) (*service.ColumnsResult, error) {
	const op errs.Op = "columnsService.RenameColumns"

	err := input.Validate()
	if err != nil {
		return nil, errs.E(errs.Validation, op, err)
	}

	ds, err := s.datasetStorage.GetDataset(ctx, dataset)
	if err != nil {
		return nil, errs.E(op, err)
	}

	renames := make([]service.ColumnRename, len(input.Renames))
	for i, r := range input.Renames {
		renames[i] = service.ColumnRename{
			From: r.From,
			To:   service.NormalizeIdentifier(r.To),
		}
	}

	err = s.columnsStorage.RenameColumns(ctx, service.WorkingCopyName(ds.Name), renames)
	if err != nil {
		return nil, errs.E(op, err)
	}

	return s.changed(ctx, ds.Name, fmt.Sprintf("renamed %d columns", len(renames)))
}

func (s *columnsService) changed(ctx context.Context, dataset, message string) (*service.ColumnsResult, error) {
	const op errs.Op = "columnsService.changed"

	_, err := s.datasetStorage.TouchDataset(ctx, dataset)
	if err != nil {
		return nil, errs.E(op, err)
	}

	columns, err := s.schemaStorage.Describe(ctx, service.WorkingCopyName(dataset))
	if err != nil {
		return nil, errs.E(op, err)
	}

	return &service.ColumnsResult{
		Message: message,
		Columns: columns,
	}, nil
}

func NewColumnsService(
	datasetStorage service.DatasetStorage,
	schemaStorage service.SchemaStorage,
	columnsStorage service.ColumnsStorage,
) *columnsService {
	return &columnsService{
		datasetStorage: datasetStorage,
		schemaStorage:  schemaStorage,
		columnsStorage: columnsStorage,
	}
}
