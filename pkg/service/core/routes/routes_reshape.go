package routes

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/navikt/datavask-backend/pkg/service/core/handlers"
	"github.com/navikt/datavask-backend/pkg/service/core/transport"
	"github.com/rs/zerolog"
)

type ReshapeEndpoints struct {
	HandleMissingValues http.HandlerFunc
	RemoveDuplicates    http.HandlerFunc
}

func NewReshapeEndpoints(log zerolog.Logger, h *handlers.ReshapeHandler) *ReshapeEndpoints {
	return &ReshapeEndpoints{
		HandleMissingValues: transport.For(h.HandleMissingValues).RequestFromJSON().Build(log),
		RemoveDuplicates:    transport.For(h.RemoveDuplicates).RequestFromJSON().Build(log),
	}
}

func NewReshapeRoutes(endpoints *ReshapeEndpoints, auth func(http.Handler) http.Handler) AddRoutesFn {
	return func(router chi.Router) {
		router.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/api/datasets/{name}/missing", endpoints.HandleMissingValues)
			r.Post("/api/datasets/{name}/duplicates", endpoints.RemoveDuplicates)
		})
	}
}
