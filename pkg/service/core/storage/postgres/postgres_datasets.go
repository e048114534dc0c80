package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/navikt/datavask-backend/pkg/database"
	"github.com/navikt/datavask-backend/pkg/database/gensql"
	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
)

type DatasetQueries interface {
	GetDataset(ctx context.Context, name string) (gensql.Dataset, error)
	GetDatasets(ctx context.Context) ([]gensql.Dataset, error)
	BumpDatasetRevision(ctx context.Context, name string) (int64, error)
}

var _ service.DatasetStorage = &datasetStorage{}

type datasetStorage struct {
	queries DatasetQueries
	db      *database.Repo
}

func (s *datasetStorage) CreateDataset(ctx context.Context, imp *service.Import) (*service.Dataset, error) {
	const op errs.Op = "datasetStorage.CreateDataset"

	copyName := service.WorkingCopyName(imp.Name)

	if err := checkIdentifiers(op, imp.Name, copyName); err != nil {
		return nil, err
	}

	if len(imp.Columns) == 0 {
		return nil, errs.E(errs.Validation, op, errs.Parameter("columns"), fmt.Errorf("dataset %s has no columns", imp.Name))
	}

	names := make([]string, len(imp.Columns))
	definitions := make([]string, len(imp.Columns))

	for i, c := range imp.Columns {
		if err := checkIdentifiers(op, c.Name); err != nil {
			return nil, err
		}

		if c.Name == service.SurrogateColumn {
			return nil, errs.E(errs.Validation, op, errs.Parameter(c.Name), fmt.Errorf("column name %s is reserved", c.Name))
		}

		if err := checkStorageType(op, c.StorageType); err != nil {
			return nil, err
		}

		names[i] = c.Name
		definitions[i] = fmt.Sprintf("%s %s", pq.QuoteIdentifier(c.Name), c.StorageType)
	}

	mapping, err := headerMappingToNullRawMessage(imp.HeaderMapping)
	if err != nil {
		return nil, errs.E(errs.Internal, op, err)
	}

	tx, err := s.db.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return nil, dbError(op, err)
	}
	defer tx.Rollback()

	schema := s.db.Schema()
	canonical := qualified(schema, imp.Name)
	working := qualified(schema, copyName)
	id := pq.QuoteIdentifier(service.SurrogateColumn)

	statements := []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", working),
		fmt.Sprintf("DROP TABLE IF EXISTS %s", canonical),
		fmt.Sprintf("CREATE TABLE %s (%s BIGSERIAL PRIMARY KEY, %s)", canonical, id, strings.Join(definitions, ", ")),
	}

	for _, stmt := range statements {
		_, err = tx.ExecContext(ctx, stmt)
		if err != nil {
			return nil, dbError(op, err, errs.Parameter(imp.Name))
		}
	}

	err = copyRows(ctx, tx, schema, imp.Name, names, imp.Rows)
	if err != nil {
		return nil, errs.E(op, err)
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (LIKE %s)", working, canonical))
	if err != nil {
		return nil, dbError(op, err, errs.Parameter(copyName))
	}

	all := quoteAll(append([]string{service.SurrogateColumn}, names...))

	_, err = tx.ExecContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ORDER BY %s",
		working, all, all, canonical, id,
	))
	if err != nil {
		return nil, dbError(op, err, errs.Parameter(copyName))
	}

	raw, err := s.db.Querier.WithTx(tx).UpsertDataset(ctx, gensql.UpsertDatasetParams{
		ID:            uuid.New(),
		Name:          imp.Name,
		SourceFile:    imp.SourceFile,
		Sheet:         imp.Sheet,
		HeaderMapping: mapping,
	})
	if err != nil {
		return nil, dbError(op, err, errs.Parameter(imp.Name))
	}

	err = tx.Commit()
	if err != nil {
		return nil, dbError(op, err)
	}

	ds, err := From(Dataset(raw))
	if err != nil {
		return nil, errs.E(errs.Internal, op, err)
	}

	return ds, nil
}

func (s *datasetStorage) GetDataset(ctx context.Context, name string) (*service.Dataset, error) {
	const op errs.Op = "datasetStorage.GetDataset"

	raw, err := s.queries.GetDataset(ctx, name)
	if err != nil {
		return nil, dbError(op, err, errs.Parameter(name))
	}

	ds, err := From(Dataset(raw))
	if err != nil {
		return nil, errs.E(errs.Internal, op, err)
	}

	return ds, nil
}

func (s *datasetStorage) GetDatasets(ctx context.Context) ([]*service.Dataset, error) {
	const op errs.Op = "datasetStorage.GetDatasets"

	raw, err := s.queries.GetDatasets(ctx)
	if err != nil {
		return nil, dbError(op, err)
	}

	datasets, err := From(Datasets(raw))
	if err != nil {
		return nil, errs.E(errs.Internal, op, err)
	}

	return datasets, nil
}

func (s *datasetStorage) DeleteDataset(ctx context.Context, name string) error {
	const op errs.Op = "datasetStorage.DeleteDataset"

	copyName := service.WorkingCopyName(name)

	if err := checkIdentifiers(op, name, copyName); err != nil {
		return err
	}

	tx, err := s.db.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return dbError(op, err)
	}
	defer tx.Rollback()

	n, err := s.db.Querier.WithTx(tx).DeleteDataset(ctx, name)
	if err != nil {
		return dbError(op, err, errs.Parameter(name))
	}

	if n == 0 {
		return errs.E(errs.NotExist, op, errs.Parameter(name), fmt.Errorf("dataset %s does not exist", name))
	}

	for _, table := range []string{copyName, name} {
		_, err = tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", qualified(s.db.Schema(), table)))
		if err != nil {
			return dbError(op, err, errs.Parameter(table))
		}
	}

	err = tx.Commit()
	if err != nil {
		return dbError(op, err)
	}

	return nil
}

func (s *datasetStorage) TouchDataset(ctx context.Context, name string) (int64, error) {
	const op errs.Op = "datasetStorage.TouchDataset"

	revision, err := s.queries.BumpDatasetRevision(ctx, name)
	if err != nil {
		return 0, dbError(op, err, errs.Parameter(name))
	}

	return revision, nil
}

func NewDatasetStorage(queries DatasetQueries, db *database.Repo) *datasetStorage {
	return &datasetStorage{
		queries: queries,
		db:      db,
	}
}
