package handlers

import (
	"context"
	"net/http"

	"github.com/navikt/datavask-backend/pkg/service"
)

type FilterHandler struct {
	filterService service.FilterService
}

func (h *FilterHandler) Filter(ctx context.Context, _ *http.Request, in service.FilterRequest) (*service.FilterResult, error) {
	return h.filterService.Filter(ctx, datasetFromContext(ctx), in)
}

func NewFilterHandler(s service.FilterService) *FilterHandler {
	return &FilterHandler{
		filterService: s,
	}
}
