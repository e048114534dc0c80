package core

import (
	"context"
	"fmt"

	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/navikt/datavask-backend/pkg/service/core/cleanse"
	"github.com/rs/zerolog"
)

var _ service.CoercionService = &coercionService{}

type coercionService struct {
	datasetStorage  service.DatasetStorage
	schemaStorage   service.SchemaStorage
	coercionStorage service.CoercionStorage
	metrics         *Metrics
	log             zerolog.Logger
}

// converterFor returns the cleansing conversion used when values of a
// column can not be cast to target by the database.
func converterFor(target service.SemanticType) service.ConvertFunc {
	switch target {
	case service.SemanticTypeInt:
		return func(raw *string) (any, error) {
			return cleanse.Int(raw)
		}
	case service.SemanticTypeFloat:
		return func(raw *string) (any, error) {
			return cleanse.Float(raw), nil
		}
	case service.SemanticTypeDatetime:
		return func(raw *string) (any, error) {
			t, err := cleanse.Datetime(raw)
			if err != nil || t == nil {
				return nil, err
			}

			return *t, nil
		}
	}

	return nil
}

// castable reports whether the database can convert every value of a
// column of type current to target without cleansing.
func castable(current, target service.SemanticType) bool {
	switch {
	case target == service.SemanticTypeString:
		return true
	case target.Numeric() && current.Numeric():
		return true
	}

	return false
}

func (s *coercionService) Coerce(ctx context.Context, dataset string, input service.CoercionRequest) (*service.CoercionReport, error) {
	const op errs.Op = "coercionService.Coerce"

	err := input.Validate()
	if err != nil {
		return nil, errs.E(errs.Validation, op, err)
	}

	ds, err := s.datasetStorage.GetDataset(ctx, dataset)
	if err != nil {
		return nil, errs.E(op, err)
	}

	table := service.WorkingCopyName(ds.Name)

	report := &service.CoercionReport{
		UpdatedColumns: []string{},
		Outcomes:       make([]service.ColumnOutcome, len(input.Columns)),
	}

	for i, c := range input.Columns {
		report.Outcomes[i] = service.ColumnOutcome{
			Column: c.Column,
			Target: c.Target,
			Status: service.CoercionNotAttempted,
		}
	}

	var failure error

	for i, c := range input.Columns {
		outcome := &report.Outcomes[i]

		status, err := s.coerceColumn(ctx, table, c)
		if err != nil {
			outcome.Status = service.CoercionFailed
			outcome.Reason = reason(err)
			failure = errs.E(op, errs.Parameter(c.Column), err)

			s.metrics.CoercedColumns.WithLabelValues(string(service.CoercionFailed)).Inc()
			s.log.Info().Err(err).Str("table", table).Str("column", c.Column).Str("target", string(c.Target)).Msg("coercion failed")

			break
		}

		outcome.Status = status
		if status == service.CoercionSkipped {
			outcome.Reason = "already correct type"
		}

		if status == service.CoercionApplied {
			report.UpdatedColumns = append(report.UpdatedColumns, c.Column)
		}

		s.metrics.CoercedColumns.WithLabelValues(string(status)).Inc()
	}

	if len(report.UpdatedColumns) > 0 {
		_, err := s.datasetStorage.TouchDataset(ctx, ds.Name)
		if err != nil {
			return nil, errs.E(op, err)
		}
	}

	report.Message = fmt.Sprintf("updated %d of %d columns in %s", len(report.UpdatedColumns), len(input.Columns), ds.Name)

	if failure != nil {
		report.Error = reason(failure)
		report.FailureKind = errs.KindOf(failure)

		return report, failure
	}

	return report, nil
}

func (s *coercionService) coerceColumn(ctx context.Context, table string, c service.ColumnTarget) (service.CoercionStatus, error) {
	const op errs.Op = "coercionService.coerceColumn"

	current, err := s.schemaStorage.TypeOf(ctx, table, c.Column)
	if err != nil {
		return "", errs.E(op, err)
	}

	if current.SemanticType == c.Target {
		return service.CoercionSkipped, nil
	}

	if castable(current.SemanticType, c.Target) {
		err = s.coercionStorage.CastColumn(ctx, table, c.Column, c.Target)
	} else {
		err = s.coercionStorage.RewriteColumn(ctx, table, c.Column, c.Target, converterFor(c.Target))
	}

	if err != nil {
		return "", errs.E(op, err)
	}

	return service.CoercionApplied, nil
}

// reason is the message of the innermost error, without the operations it
// passed through.
func reason(err error) string {
	for {
		e, ok := err.(*errs.Error)
		if !ok || e.Err == nil {
			return err.Error()
		}

		err = e.Err
	}
}

func NewCoercionService(
	datasetStorage service.DatasetStorage,
	schemaStorage service.SchemaStorage,
	coercionStorage service.CoercionStorage,
	metrics *Metrics,
	log zerolog.Logger,
) *coercionService {
	return &coercionService{
		datasetStorage:  datasetStorage,
		schemaStorage:   schemaStorage,
		coercionStorage: coercionStorage,
		metrics:         metrics,
		log:             log,
	}
}
