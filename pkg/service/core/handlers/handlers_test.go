package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/navikt/datavask-backend/pkg/service/core/handlers"
	"github.com/navikt/datavask-backend/pkg/service/core/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type CoercionServiceMock struct {
	mock.Mock
}

func (m *CoercionServiceMock) Coerce(ctx context.Context, dataset string, input service.CoercionRequest) (*service.CoercionReport, error) {
	args := m.Called(ctx, dataset, input)

	report, _ := args.Get(0).(*service.CoercionReport)

	return report, args.Error(1)
}

type DatasetServiceMock struct {
	mock.Mock
	uploaded []byte
}

func (m *DatasetServiceMock) GetDatasets(ctx context.Context) (*service.DatasetsList, error) {
	args := m.Called(ctx)
	return args.Get(0).(*service.DatasetsList), args.Error(1)
}

func (m *DatasetServiceMock) Upload(ctx context.Context, input *service.UploadDto) (*service.UploadResult, error) {
	data, err := io.ReadAll(input.File)
	if err != nil {
		return nil, err
	}

	m.uploaded = data

	args := m.Called(ctx, input.FileName, input.Sheet, input.Name)

	return args.Get(0).(*service.UploadResult), args.Error(1)
}

func (m *DatasetServiceMock) DeleteDataset(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *DatasetServiceMock) GetRows(ctx context.Context, name string) (*service.RowsResult, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(*service.RowsResult), args.Error(1)
}

func (m *DatasetServiceMock) GetOverview(ctx context.Context, name string) (*service.Overview, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(*service.Overview), args.Error(1)
}

func coercionRequest() service.CoercionRequest {
	return service.CoercionRequest{
		Columns: []service.ColumnTarget{
			{Column: "age", Target: service.SemanticTypeInt},
			{Column: "born", Target: service.SemanticTypeDatetime},
		},
	}
}

func partialReport(kind errs.Kind, reason string) *service.CoercionReport {
	return &service.CoercionReport{
		Message:        "updated 1 of 2 columns in people",
		UpdatedColumns: []string{"age"},
		Outcomes: []service.ColumnOutcome{
			{Column: "age", Target: service.SemanticTypeInt, Status: service.CoercionApplied},
			{Column: "born", Target: service.SemanticTypeDatetime, Status: service.CoercionFailed, Reason: reason},
		},
		Error:       reason,
		FailureKind: kind,
	}
}

func TestCoercionHandler_Coerce(t *testing.T) {
	testCases := []struct {
		name         string
		report       *service.CoercionReport
		err          error
		expectStatus int
		expectReport bool
	}{
		{
			name: "all applied",
			report: &service.CoercionReport{
				Message:        "updated 2 of 2 columns in people",
				UpdatedColumns: []string{"age", "born"},
			},
			expectStatus: http.StatusOK,
			expectReport: true,
		},
		{
			name:         "conversion failure responds with the report",
			report:       partialReport(errs.Conversion, "not a date"),
			err:          errs.E(errs.Conversion, errs.Op("coercionService.Coerce"), fmt.Errorf("not a date")),
			expectStatus: http.StatusUnprocessableEntity,
			expectReport: true,
		},
		{
			name:         "unknown column responds with the report",
			report:       partialReport(errs.NotExist, "column born does not exist in people_copy"),
			err:          errs.E(errs.NotExist, errs.Op("coercionService.Coerce"), fmt.Errorf("column born does not exist in people_copy")),
			expectStatus: http.StatusNotFound,
			expectReport: true,
		},
		{
			name:         "database failure on a column responds with the report",
			report:       partialReport(errs.Database, "canceling statement due to lock timeout"),
			err:          errs.E(errs.Database, errs.Op("coercionService.Coerce"), fmt.Errorf("canceling statement due to lock timeout")),
			expectStatus: http.StatusInternalServerError,
			expectReport: true,
		},
		{
			name:         "failure outside any column is an error response",
			err:          errs.E(errs.IO, errs.Op("datasetStorage.TouchDataset"), fmt.Errorf("connection refused")),
			expectStatus: http.StatusInternalServerError,
		},
		{
			name:         "unknown dataset",
			err:          errs.E(errs.NotExist, errs.Op("datasetStorage.GetDataset"), fmt.Errorf("no rows")),
			expectStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := &CoercionServiceMock{}
			s.On("Coerce", mock.Anything, "people", coercionRequest()).Return(tc.report, tc.err)

			r := chi.NewRouter()
			r.Post("/api/datasets/{name}/types", transport.For(handlers.NewCoercionHandler(s).Coerce).RequestFromJSON().Build(zerolog.Nop()))

			body := `{"columns": {"age": "int", "born": "datetime"}}`
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/datasets/people/types", bytes.NewBufferString(body)))

			assert.Equal(t, tc.expectStatus, rr.Code)
			s.AssertExpectations(t)

			if !tc.expectReport {
				got := &errs.ErrResponse{}
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), got))
				assert.Equal(t, errs.KindOf(tc.err).String(), got.Error.Kind)

				return
			}

			got := &service.CoercionReport{}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), got))

			diff := cmp.Diff(tc.report, got, cmpopts.IgnoreFields(service.CoercionReport{}, "FailureKind"))
			assert.Empty(t, diff)
		})
	}
}

func uploadRequest(t *testing.T, fileName, content string, fields map[string]string) *http.Request {
	t.Helper()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	if fileName != "" {
		part, err := w.CreateFormFile(handlers.FormFieldFile, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}

	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}

	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &b)
	req.Header.Set("Content-Type", w.FormDataContentType())

	return req
}

func TestDatasetsHandler_Upload(t *testing.T) {
	content := "name;age\nAda;20\n"

	testCases := []struct {
		name         string
		request      func(t *testing.T) *http.Request
		maxBytes     int64
		expectStatus int
		expectCall   bool
	}{
		{
			name: "csv with name",
			request: func(t *testing.T) *http.Request {
				return uploadRequest(t, "people.csv", content, map[string]string{
					handlers.FormFieldName:  " people ",
					handlers.FormFieldSheet: "",
				})
			},
			expectStatus: http.StatusOK,
			expectCall:   true,
		},
		{
			name: "missing file",
			request: func(t *testing.T) *http.Request {
				return uploadRequest(t, "", "", map[string]string{
					handlers.FormFieldName: "people",
				})
			},
			expectStatus: http.StatusBadRequest,
		},
		{
			name: "not multipart",
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/datasets", bytes.NewBufferString("{}"))
			},
			expectStatus: http.StatusBadRequest,
		},
		{
			name: "too large",
			request: func(t *testing.T) *http.Request {
				return uploadRequest(t, "people.csv", content, nil)
			},
			maxBytes:     8,
			expectStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := &DatasetServiceMock{}
			if tc.expectCall {
				s.On("Upload", mock.Anything, "people.csv", "", "people").Return(&service.UploadResult{
					Message: "created dataset people from people.csv",
					Rows:    1,
				}, nil)
			}

			h := handlers.NewDatasetsHandler(s, nil, tc.maxBytes)

			rr := httptest.NewRecorder()
			transport.For(h.Upload).Build(zerolog.Nop()).ServeHTTP(rr, tc.request(t))

			assert.Equal(t, tc.expectStatus, rr.Code)
			s.AssertExpectations(t)

			if tc.expectCall {
				assert.Equal(t, content, string(s.uploaded))
			}
		})
	}
}

func TestDatasetsHandler_DeleteDataset(t *testing.T) {
	s := &DatasetServiceMock{}
	s.On("DeleteDataset", mock.Anything, "people").Return(nil)

	r := chi.NewRouter()
	r.Delete("/api/datasets/{name}", transport.For(handlers.NewDatasetsHandler(s, nil, 0).DeleteDataset).Build(zerolog.Nop()))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/datasets/people", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	s.AssertExpectations(t)
}
