package routes

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/navikt/datavask-backend/pkg/service/core/handlers"
	"github.com/navikt/datavask-backend/pkg/service/core/transport"
	"github.com/rs/zerolog"
)

type FilterEndpoints struct {
	Filter http.HandlerFunc
}

func NewFilterEndpoints(log zerolog.Logger, h *handlers.FilterHandler) *FilterEndpoints {
	return &FilterEndpoints{
		Filter: transport.For(h.Filter).RequestFromJSON().Build(log),
	}
}

func NewFilterRoutes(endpoints *FilterEndpoints, auth func(http.Handler) http.Handler) AddRoutesFn {
	return func(router chi.Router) {
		router.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/api/datasets/{name}/filter", endpoints.Filter)
		})
	}
}
