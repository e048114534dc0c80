package postgres

import (
	"context"
	"fmt"

	"github.com/navikt/datavask-backend/pkg/database"
	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
)

var _ service.SchemaStorage = &schemaStorage{}

type schemaStorage struct {
	db *database.Repo
}

func (s *schemaStorage) Describe(ctx context.Context, table string) ([]service.ColumnDescriptor, error) {
	const op errs.Op = "schemaStorage.Describe"

	columns, err := tableColumns(ctx, s.db.GetDB(), s.db.Schema(), table)
	if err != nil {
		return nil, errs.E(op, err)
	}

	return userColumns(columns), nil
}

func (s *schemaStorage) TypeOf(ctx context.Context, table, column string) (*service.ColumnDescriptor, error) {
	const op errs.Op = "schemaStorage.TypeOf"

	columns, err := s.Describe(ctx, table)
	if err != nil {
		return nil, errs.E(op, err)
	}

	c, ok := findColumn(columns, column)
	if !ok {
		return nil, errs.E(errs.NotExist, op, errs.Parameter(column), fmt.Errorf("column %s does not exist in %s", column, table))
	}

	return c, nil
}

func NewSchemaStorage(db *database.Repo) *schemaStorage {
	return &schemaStorage{
		db: db,
	}
}
