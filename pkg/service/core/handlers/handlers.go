package handlers

import (
	"github.com/navikt/datavask-backend/pkg/config/v2"
	"github.com/navikt/datavask-backend/pkg/service/core"
)

type Handlers struct {
	CoercionHandler *CoercionHandler
	ColumnsHandler  *ColumnsHandler
	DatasetsHandler *DatasetsHandler
	FilterHandler   *FilterHandler
	ReshapeHandler  *ReshapeHandler
	SyncHandler     *SyncHandler
}

func NewHandlers(s *core.Services, cfg config.Config) *Handlers {
	return &Handlers{
		CoercionHandler: NewCoercionHandler(s.CoercionService),
		ColumnsHandler:  NewColumnsHandler(s.ColumnsService),
		DatasetsHandler: NewDatasetsHandler(s.DatasetService, s.StatisticsService, cfg.Upload.MaxBytes),
		FilterHandler:   NewFilterHandler(s.FilterService),
		ReshapeHandler:  NewReshapeHandler(s.ReshapeService),
		SyncHandler:     NewSyncHandler(s.SyncService),
	}
}
