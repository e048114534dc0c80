package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/lib/pq"
	"github.com/navikt/datavask-backend/pkg/database"
	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
)

const (
	StatisticsTypeNumeric     = "numeric"
	StatisticsTypeDatetime    = "datetime"
	StatisticsTypeCategorical = "categorical"
)

var _ service.StatisticsStorage = &statisticsStorage{}

type statisticsStorage struct {
	db *database.Repo
}

func statisticsType(t service.SemanticType) string {
	switch {
	case t.Numeric():
		return StatisticsTypeNumeric
	case t == service.SemanticTypeDatetime:
		return StatisticsTypeDatetime
	default:
		return StatisticsTypeCategorical
	}
}

// statisticsQuery computes the aggregates of a single column. Aggregates
// that do not apply to the type of the column are selected as NULL.
func statisticsQuery(table string, column service.ColumnDescriptor) string {
	col := pq.QuoteIdentifier(column.Name)

	minMax := "NULL, NULL"
	moments := "NULL, NULL, NULL"

	switch statisticsType(column.SemanticType) {
	case StatisticsTypeNumeric:
		minMax = fmt.Sprintf("MIN(%s)::TEXT, MAX(%s)::TEXT", col, col)
		moments = fmt.Sprintf(
			"AVG(%[1]s)::DOUBLE PRECISION, PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY %[1]s)::DOUBLE PRECISION, STDDEV_SAMP(%[1]s)::DOUBLE PRECISION",
			col,
		)
	case StatisticsTypeDatetime:
		minMax = fmt.Sprintf("MIN(%s)::TEXT, MAX(%s)::TEXT", col, col)
	}

	return fmt.Sprintf(
		"SELECT COUNT(*), COUNT(*) FILTER (WHERE %[1]s IS NULL OR %[1]s::TEXT IN ('', 'NaN')), COUNT(DISTINCT %[1]s), %[2]s, %[3]s FROM %[4]s",
		col, minMax, moments, table,
	)
}

func (s *statisticsStorage) GetStatistics(ctx context.Context, table string, revision int64) (*service.Statistics, error) {
	const op errs.Op = "statisticsStorage.GetStatistics"

	if err := checkIdentifiers(op, table); err != nil {
		return nil, err
	}

	columns, err := tableColumns(ctx, s.db.GetDB(), s.db.Schema(), table)
	if err != nil {
		return nil, errs.E(op, err)
	}

	stats := &service.Statistics{
		Table:    table,
		Revision: revision,
		Columns:  []*service.ColumnStatistics{},
	}

	for _, c := range userColumns(columns) {
		cs := &service.ColumnStatistics{
			Column:       c.Name,
			Type:         statisticsType(c.SemanticType),
			SemanticType: c.SemanticType,
		}

		var (
			minimum, maximum     sql.NullString
			mean, median, stdDev sql.NullFloat64
		)

		err := s.db.GetDB().QueryRowContext(ctx, statisticsQuery(qualified(s.db.Schema(), table), c)).Scan(
			&stats.Rows,
			&cs.MissingValues,
			&cs.DistinctValues,
			&minimum,
			&maximum,
			&mean,
			&median,
			&stdDev,
		)
		if err != nil {
			return nil, dbError(op, err, errs.Parameter(c.Name))
		}

		if stats.Rows > 0 {
			cs.MissingPercentage = math.Round(float64(cs.MissingValues)/float64(stats.Rows)*1000) / 10
		}

		cs.Min = nullStringToPtr(minimum)
		cs.Max = nullStringToPtr(maximum)
		cs.Mean = finiteToPtr(mean)
		cs.Median = finiteToPtr(median)
		cs.StdDev = finiteToPtr(stdDev)

		stats.Columns = append(stats.Columns, cs)
	}

	return stats, nil
}

func nullStringToPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}

	return &s.String
}

// finiteToPtr returns nil for NULL, NaN and infinite aggregates, which
// can not be encoded as JSON.
func finiteToPtr(f sql.NullFloat64) *float64 {
	if !f.Valid || math.IsNaN(f.Float64) || math.IsInf(f.Float64, 0) {
		return nil
	}

	return &f.Float64
}

func NewStatisticsStorage(db *database.Repo) *statisticsStorage {
	return &statisticsStorage{
		db: db,
	}
}
