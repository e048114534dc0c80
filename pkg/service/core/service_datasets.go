package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/navikt/datavask-backend/pkg/service/core/filter"
	"github.com/navikt/datavask-backend/pkg/service/core/reshape"
	"github.com/navikt/datavask-backend/pkg/sheet"
	"github.com/rs/zerolog"
)

var _ service.DatasetService = &datasetService{}

type datasetService struct {
	datasetStorage  service.DatasetStorage
	schemaStorage   service.SchemaStorage
	snapshotStorage service.SnapshotStorage
	archive         service.SourceArchive
	log             zerolog.Logger
}

func (s *datasetService) GetDatasets(ctx context.Context) (*service.DatasetsList, error) {
	const op errs.Op = "datasetService.GetDatasets"

	datasets, err := s.datasetStorage.GetDatasets(ctx)
	if err != nil {
		return nil, errs.E(op, err)
	}

	return &service.DatasetsList{
		Datasets: datasets,
	}, nil
}

func (s *datasetService) Upload(ctx context.Context, input *service.UploadDto) (*service.UploadResult, error) {
	const op errs.Op = "datasetService.Upload"

	err := input.Validate()
	if err != nil {
		return nil, errs.E(errs.Validation, op, err)
	}

	format, err := sheet.FormatOf(input.FileName)
	if err != nil {
		return nil, errs.E(errs.Validation, op, errs.Parameter("file"), err)
	}

	data, err := io.ReadAll(input.File)
	if err != nil {
		return nil, errs.E(errs.IO, op, err)
	}

	if format == sheet.FormatXLSX && input.Sheet == "" {
		names, err := sheet.SheetNames(input.FileName, data)
		if err != nil {
			return nil, errs.E(errs.Validation, op, errs.Parameter("file"), err)
		}

		return &service.UploadResult{
			Message: "select one of the sheets in the workbook",
			Sheets:  names,
		}, nil
	}

	table, err := sheet.Read(input.FileName, data, input.Sheet)
	if err != nil {
		if errors.Is(err, sheet.ErrNoSheet) {
			return nil, errs.E(errs.NotExist, op, errs.Parameter("sheet"), err)
		}

		return nil, errs.E(errs.Validation, op, errs.Parameter("file"), err)
	}

	name := datasetName(input.Name, input.FileName, format, table.Sheet)

	err = service.ValidateDatasetName(name)
	if err != nil {
		return nil, errs.E(errs.Validation, op, errs.Parameter("name"), err)
	}

	names := service.UniqueColumnNames(table.Headers)
	types := table.InferTypes()

	imp := &service.Import{
		Name:          name,
		SourceFile:    filepath.Base(input.FileName),
		Sheet:         table.Sheet,
		HeaderMapping: make(map[string]string, len(names)),
		Columns:       make([]service.ImportColumn, len(names)),
		Rows:          table.Values(types),
	}

	for i, n := range names {
		if _, ok := imp.HeaderMapping[table.Headers[i]]; !ok {
			imp.HeaderMapping[table.Headers[i]] = n
		}

		imp.Columns[i] = service.ImportColumn{
			Name:        n,
			StorageType: types[i],
		}
	}

	ds, err := s.datasetStorage.CreateDataset(ctx, imp)
	if err != nil {
		return nil, errs.E(op, err)
	}

	err = s.archive.Store(ctx, ds.Name, imp.SourceFile, data)
	if err != nil {
		s.log.Warn().Err(err).Str("dataset", ds.Name).Msg("archiving source file")
	}

	columns, err := s.schemaStorage.Describe(ctx, service.WorkingCopyName(ds.Name))
	if err != nil {
		return nil, errs.E(op, err)
	}

	return &service.UploadResult{
		Message: fmt.Sprintf("created dataset %s from %s", ds.Name, imp.SourceFile),
		Dataset: ds,
		Columns: columns,
		Rows:    len(imp.Rows),
	}, nil
}

// datasetName is the normalized name asked for, or one derived from the
// file name and, for workbooks, the sheet.
func datasetName(requested, fileName string, format sheet.Format, sheetName string) string {
	if requested != "" {
		return service.NormalizeIdentifier(requested)
	}

	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))

	if format == sheet.FormatXLSX {
		base = base + "_" + sheetName
	}

	return service.NormalizeIdentifier(base)
}

func (s *datasetService) DeleteDataset(ctx context.Context, name string) error {
	const op errs.Op = "datasetService.DeleteDataset"

	err := s.datasetStorage.DeleteDataset(ctx, name)
	if err != nil {
		return errs.E(op, err)
	}

	err = s.archive.Remove(ctx, name)
	if err != nil {
		s.log.Warn().Err(err).Str("dataset", name).Msg("removing archived source file")
	}

	return nil
}

func (s *datasetService) workingCopy(ctx context.Context, name string) (*service.Snapshot, error) {
	const op errs.Op = "datasetService.workingCopy"

	ds, err := s.datasetStorage.GetDataset(ctx, name)
	if err != nil {
		return nil, errs.E(op, err)
	}

	snapshot, err := s.snapshotStorage.Snapshot(ctx, service.WorkingCopyName(ds.Name))
	if err != nil {
		return nil, errs.E(op, err)
	}

	return snapshot, nil
}

func (s *datasetService) GetRows(ctx context.Context, name string) (*service.RowsResult, error) {
	const op errs.Op = "datasetService.GetRows"

	snapshot, err := s.workingCopy(ctx, name)
	if err != nil {
		return nil, errs.E(op, err)
	}

	columns := snapshot.UserColumns()
	if columns == nil {
		columns = []string{}
	}

	return &service.RowsResult{
		Columns: columns,
		Rows:    snapshot.Records(),
	}, nil
}

func (s *datasetService) GetOverview(ctx context.Context, name string) (*service.Overview, error) {
	const op errs.Op = "datasetService.GetOverview"

	snapshot, err := s.workingCopy(ctx, name)
	if err != nil {
		return nil, errs.E(op, err)
	}

	columns := snapshot.UserColumns()

	missing, err := reshape.CountMissing(snapshot, columns)
	if err != nil {
		return nil, errs.E(op, err)
	}

	duplicates := reshape.CountDuplicates(snapshot)
	types := filter.ClassifySnapshot(snapshot)

	overview := &service.Overview{
		Rows:           len(snapshot.Rows),
		Columns:        len(columns),
		DuplicateRows:  duplicates,
		UniqueRows:     len(snapshot.Rows) - duplicates,
		MissingValues:  missing,
		ColumnTypes:    make(map[string]service.SemanticType, len(columns)),
		NumericColumns: []string{},
	}

	for i, c := range snapshot.Columns {
		if c.Name == service.SurrogateColumn {
			continue
		}

		overview.ColumnTypes[c.Name] = types[i]

		if types[i].Numeric() {
			overview.NumericColumns = append(overview.NumericColumns, c.Name)
		}
	}

	return overview, nil
}

func NewDatasetService(
	datasetStorage service.DatasetStorage,
	schemaStorage service.SchemaStorage,
	snapshotStorage service.SnapshotStorage,
	archive service.SourceArchive,
	log zerolog.Logger,
) *datasetService {
	return &datasetService{
		datasetStorage:  datasetStorage,
		schemaStorage:   schemaStorage,
		snapshotStorage: snapshotStorage,
		archive:         archive,
		log:             log,
	}
}
