package service

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type FillMethod string

const (
	FillMean   FillMethod = "mean"
	FillMedian FillMethod = "median"
	FillMode   FillMethod = "mode"
	FillBfill  FillMethod = "bfill"
	FillFfill  FillMethod = "ffill"
	FillZero   FillMethod = "zero"
)

type MissingAction string

const (
	MissingFill   MissingAction = "fill"
	MissingRemove MissingAction = "remove"
)

type MissingValuesDto struct {
	Columns []string      `json:"columns"`
	Action  MissingAction `json:"action"`
	Method  FillMethod    `json:"method"`
}

func (d MissingValuesDto) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Columns, validation.Required),
		validation.Field(&d.Action, validation.Required, validation.In(MissingFill, MissingRemove)),
		validation.Field(&d.Method,
			validation.When(d.Action == MissingFill, validation.Required),
			validation.In(FillMean, FillMedian, FillMode, FillBfill, FillFfill, FillZero),
		),
	)
}

type MissingValuesResult struct {
	Message          string   `json:"message"`
	ColumnsProcessed []string `json:"columnsProcessed,omitempty"`
	RowsRemoved      int      `json:"rowsRemoved"`
	RowsRemaining    int      `json:"rowsRemaining"`
}

type DuplicatesDto struct {
	// Columns to compare, all columns when empty.
	Columns []string `json:"columns"`
}

type DuplicatesResult struct {
	Message       string `json:"message"`
	RowsRemoved   int    `json:"rowsRemoved"`
	RowsRemaining int    `json:"rowsRemaining"`
}

type ReshapeService interface {
	HandleMissingValues(ctx context.Context, dataset string, input MissingValuesDto) (*MissingValuesResult, error)
	RemoveDuplicates(ctx context.Context, dataset string, input DuplicatesDto) (*DuplicatesResult, error)
}

type ColumnStatistics struct {
	Column            string       `json:"column"`
	Type              string       `json:"type"`
	SemanticType      SemanticType `json:"semanticType"`
	MissingValues     int64        `json:"missingValues"`
	MissingPercentage float64      `json:"missingPercentage"`
	DistinctValues    int64        `json:"distinctValues"`
	Min               *string      `json:"min"`
	Max               *string      `json:"max"`
	Mean              *float64     `json:"mean"`
	Median            *float64     `json:"median"`
	StdDev            *float64     `json:"stdDev"`
}

type Statistics struct {
	Table    string              `json:"table"`
	Rows     int64               `json:"rows"`
	Revision int64               `json:"revision"`
	Columns  []*ColumnStatistics `json:"columns"`
}

type StatisticsStorage interface {
	GetStatistics(ctx context.Context, table string, revision int64) (*Statistics, error)
}

type StatisticsService interface {
	GetStatistics(ctx context.Context, dataset string) (*Statistics, error)
}
