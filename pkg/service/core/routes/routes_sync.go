package routes

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/navikt/datavask-backend/pkg/service/core/handlers"
	"github.com/navikt/datavask-backend/pkg/service/core/transport"
	"github.com/rs/zerolog"
)

type SyncEndpoints struct {
	Sync http.HandlerFunc
}

func NewSyncEndpoints(log zerolog.Logger, h *handlers.SyncHandler) *SyncEndpoints {
	return &SyncEndpoints{
		Sync: transport.For(h.Sync).Build(log),
	}
}

func NewSyncRoutes(endpoints *SyncEndpoints, auth func(http.Handler) http.Handler) AddRoutesFn {
	return func(router chi.Router) {
		router.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/api/datasets/{name}/sync", endpoints.Sync)
		})
	}
}
