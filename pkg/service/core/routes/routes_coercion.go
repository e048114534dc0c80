package routes

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/navikt/datavask-backend/pkg/service/core/handlers"
	"github.com/navikt/datavask-backend/pkg/service/core/transport"
	"github.com/rs/zerolog"
)

type CoercionEndpoints struct {
	Coerce http.HandlerFunc
}

func NewCoercionEndpoints(log zerolog.Logger, h *handlers.CoercionHandler) *CoercionEndpoints {
	return &CoercionEndpoints{
		Coerce: transport.For(h.Coerce).RequestFromJSON().Build(log),
	}
}

func NewCoercionRoutes(endpoints *CoercionEndpoints, auth func(http.Handler) http.Handler) AddRoutesFn {
	return func(router chi.Router) {
		router.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/api/datasets/{name}/types", endpoints.Coerce)
		})
	}
}
