package core

import "github.com/navikt/datavask-backend/pkg/service"

type Services struct {
	CoercionService   service.CoercionService
	ColumnsService    service.ColumnsService
	DatasetService    service.DatasetService
	FilterService     service.FilterService
	ReshapeService    service.ReshapeService
	StatisticsService service.StatisticsService
	SyncService       service.SyncService
}

func NewServices(
	coercionService service.CoercionService,
	columnsService service.ColumnsService,
	datasetService service.DatasetService,
	filterService service.FilterService,
	reshapeService service.ReshapeService,
	statisticsService service.StatisticsService,
	syncService service.SyncService,
) *Services {
	return &Services{
		CoercionService:   coercionService,
		ColumnsService:    columnsService,
		DatasetService:    datasetService,
		FilterService:     filterService,
		ReshapeService:    reshapeService,
		StatisticsService: statisticsService,
		SyncService:       syncService,
	}
}
