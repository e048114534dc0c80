package routes

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/navikt/datavask-backend/pkg/service/core/handlers"
	"github.com/navikt/datavask-backend/pkg/service/core/transport"
	"github.com/rs/zerolog"
)

type DatasetsEndpoints struct {
	GetDatasets   http.HandlerFunc
	Upload        http.HandlerFunc
	DeleteDataset http.HandlerFunc
	GetRows       http.HandlerFunc
	GetOverview   http.HandlerFunc
	GetStatistics http.HandlerFunc
}

func NewDatasetsEndpoints(log zerolog.Logger, h *handlers.DatasetsHandler) *DatasetsEndpoints {
	return &DatasetsEndpoints{
		GetDatasets:   transport.For(h.GetDatasets).Build(log),
		Upload:        transport.For(h.Upload).Build(log),
		DeleteDataset: transport.For(h.DeleteDataset).Build(log),
		GetRows:       transport.For(h.GetRows).Build(log),
		GetOverview:   transport.For(h.GetOverview).Build(log),
		GetStatistics: transport.For(h.GetStatistics).Build(log),
	}
}

func NewDatasetsRoutes(endpoints *DatasetsEndpoints, auth func(http.Handler) http.Handler) AddRoutesFn {
	return func(router chi.Router) {
		router.Group(func(r chi.Router) {
			r.Use(auth)
			r.Get("/api/datasets", endpoints.GetDatasets)
			r.Post("/api/datasets", endpoints.Upload)
			r.Delete("/api/datasets/{name}", endpoints.DeleteDataset)
			r.Get("/api/datasets/{name}/rows", endpoints.GetRows)
			r.Get("/api/datasets/{name}/overview", endpoints.GetOverview)
			r.Get("/api/datasets/{name}/statistics", endpoints.GetStatistics)
		})
	}
}
