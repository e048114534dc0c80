package handlers

import (
	"context"
	"net/http"

	"github.com/navikt/datavask-backend/pkg/service"
)

type CoercionHandler struct {
	coercionService service.CoercionService
}

// Coerce responds with the report whenever a column failed, with the status
// of the failure, so the client sees which columns were applied before it.
func (h *CoercionHandler) Coerce(ctx context.Context, _ *http.Request, in service.CoercionRequest) (*service.CoercionReport, error) {
	report, err := h.coercionService.Coerce(ctx, datasetFromContext(ctx), in)
	if err != nil {
		if report != nil && report.Error != "" {
			return report, nil
		}

		return nil, err
	}

	return report, nil
}

func NewCoercionHandler(s service.CoercionService) *CoercionHandler {
	return &CoercionHandler{
		coercionService: s,
	}
}
