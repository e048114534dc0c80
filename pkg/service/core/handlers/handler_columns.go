package handlers

import (
	"context"
	"net/http"

	"github.com/navikt/datavask-backend/pkg/service"
)

type ColumnsHandler struct {
	columnsService service.ColumnsService
}

func (h *ColumnsHandler) GetColumns(ctx context.Context, _ *http.Request, _ any) ([]service.ColumnDescriptor, error) {
	return h.columnsService.GetColumns(ctx, datasetFromContext(ctx))
}

func (h *ColumnsHandler) RemoveColumns(ctx context.Context, _ *http.Request, in service.RemoveColumnsDto) (*service.ColumnsResult, error) {
	return h.columnsService.RemoveColumns(ctx, datasetFromContext(ctx), in)
}

func (h *ColumnsHandler) RenameColumns(ctx context.Context, _ *http.Request, in service.RenameColumnsDto) (*service.ColumnsResult, error) {
	return h.columnsService.RenameColumns(ctx, datasetFromContext(ctx), in)
}

func NewColumnsHandler(s service.ColumnsService) *ColumnsHandler {
	return &ColumnsHandler{
		columnsService: s,
	}
}
