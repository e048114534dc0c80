package routes

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/navikt/datavask-backend/pkg/service/core/handlers"
	"github.com/navikt/datavask-backend/pkg/service/core/transport"
	"github.com/rs/zerolog"
)

type ColumnsEndpoints struct {
	GetColumns    http.HandlerFunc
	RemoveColumns http.HandlerFunc
	RenameColumns http.HandlerFunc
}

func NewColumnsEndpoints(log zerolog.Logger, h *handlers.ColumnsHandler) *ColumnsEndpoints {
	return &ColumnsEndpoints{
		GetColumns:    transport.For(h.GetColumns).Build(log),
		RemoveColumns: transport.For(h.RemoveColumns).RequestFromJSON().Build(log),
		RenameColumns: transport.For(h.RenameColumns).RequestFromJSON().Build(log),
	}
}

func NewColumnsRoutes(endpoints *ColumnsEndpoints, auth func(http.Handler) http.Handler) AddRoutesFn {
	return func(router chi.Router) {
		router.Group(func(r chi.Router) {
			r.Use(auth)
			r.Get("/api/datasets/{name}/columns", endpoints.GetColumns)
			r.Post("/api/datasets/{name}/columns/remove", endpoints.RemoveColumns)
			r.Post("/api/datasets/{name}/columns/rename", endpoints.RenameColumns)
		})
	}
}
