package handlers

import (
	"context"
	"net/http"

	"github.com/navikt/datavask-backend/pkg/service"
)

type SyncHandler struct {
	syncService service.SyncService
}

func (h *SyncHandler) Sync(ctx context.Context, _ *http.Request, _ any) (*service.SyncResult, error) {
	return h.syncService.Sync(ctx, datasetFromContext(ctx))
}

func NewSyncHandler(s service.SyncService) *SyncHandler {
	return &SyncHandler{
		syncService: s,
	}
}
