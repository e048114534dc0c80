package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/navikt/datavask-backend/pkg/service/core/parser"
	"github.com/navikt/datavask-backend/pkg/service/core/transport"
)

const (
	URLParamDataset = "name"

	FormFieldFile  = "file"
	FormFieldSheet = "sheet"
	FormFieldName  = "name"
)

// datasetFromContext is the dataset named in the route.
func datasetFromContext(ctx context.Context) string {
	return chi.URLParamFromCtx(ctx, URLParamDataset)
}

type DatasetsHandler struct {
	datasetService    service.DatasetService
	statisticsService service.StatisticsService
	maxUploadBytes    int64
}

func (h *DatasetsHandler) GetDatasets(ctx context.Context, _ *http.Request, _ any) (*service.DatasetsList, error) {
	return h.datasetService.GetDatasets(ctx)
}

func (h *DatasetsHandler) Upload(ctx context.Context, r *http.Request, _ any) (*service.UploadResult, error) {
	const op errs.Op = "DatasetsHandler.Upload"

	form, err := parser.ReadUploadForm(r, h.maxUploadBytes, FormFieldSheet, FormFieldName)
	if err != nil {
		if errors.Is(err, parser.ErrTooLarge) {
			return nil, errs.E(errs.InvalidRequest, op, errs.Parameter(FormFieldFile), err)
		}

		return nil, errs.E(errs.InvalidRequest, op, err)
	}
	defer form.Close()

	file, err := form.File(FormFieldFile)
	if err != nil {
		return nil, errs.E(errs.InvalidRequest, op, errs.Parameter(FormFieldFile), fmt.Errorf("missing form field %q", FormFieldFile))
	}

	input := &service.UploadDto{
		FileName: file.FileName,
		Sheet:    form.Field(FormFieldSheet),
		Name:     form.Field(FormFieldName),
		File:     file.Reader,
	}

	return h.datasetService.Upload(ctx, input)
}

func (h *DatasetsHandler) DeleteDataset(ctx context.Context, _ *http.Request, _ any) (*transport.Empty, error) {
	err := h.datasetService.DeleteDataset(ctx, datasetFromContext(ctx))
	if err != nil {
		return nil, err
	}

	return &transport.Empty{}, nil
}

func (h *DatasetsHandler) GetRows(ctx context.Context, _ *http.Request, _ any) (*service.RowsResult, error) {
	return h.datasetService.GetRows(ctx, datasetFromContext(ctx))
}

func (h *DatasetsHandler) GetOverview(ctx context.Context, _ *http.Request, _ any) (*service.Overview, error) {
	return h.datasetService.GetOverview(ctx, datasetFromContext(ctx))
}

func (h *DatasetsHandler) GetStatistics(ctx context.Context, _ *http.Request, _ any) (*service.Statistics, error) {
	return h.statisticsService.GetStatistics(ctx, datasetFromContext(ctx))
}

func NewDatasetsHandler(datasetService service.DatasetService, statisticsService service.StatisticsService, maxUploadBytes int64) *DatasetsHandler {
	return &DatasetsHandler{
		datasetService:    datasetService,
		statisticsService: statisticsService,
		maxUploadBytes:    maxUploadBytes,
	}
}
