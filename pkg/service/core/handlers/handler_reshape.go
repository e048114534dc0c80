package handlers

import (
	"context"
	"net/http"

	"github.com/navikt/datavask-backend/pkg/service"
)

type ReshapeHandler struct {
	reshapeService service.ReshapeService
}

func (h *ReshapeHandler) HandleMissingValues(ctx context.Context, _ *http.Request, in service.MissingValuesDto) (*service.MissingValuesResult, error) {
	return h.reshapeService.HandleMissingValues(ctx, datasetFromContext(ctx), in)
}

func (h *ReshapeHandler) RemoveDuplicates(ctx context.Context, _ *http.Request, in service.DuplicatesDto) (*service.DuplicatesResult, error) {
	return h.reshapeService.RemoveDuplicates(ctx, datasetFromContext(ctx), in)
}

func NewReshapeHandler(s service.ReshapeService) *ReshapeHandler {
	return &ReshapeHandler{
		reshapeService: s,
	}
}
