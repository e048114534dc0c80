package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/navikt/datavask-backend/pkg/errs"
)

type CoercionStorage interface {
	// CastColumn changes the type of column with a cast expression evaluated
	// by the database, used for total conversions.
	CastColumn(ctx context.Context, table, column string, target SemanticType) error
	// RewriteColumn reads every value of column as text ordered by the
	// surrogate key, converts it with convert and writes the converted values
	// back into the retyped column. A convert error aborts the column.
	RewriteColumn(ctx context.Context, table, column string, target SemanticType, convert ConvertFunc) error
}

type CoercionService interface {
	Coerce(ctx context.Context, dataset string, input CoercionRequest) (*CoercionReport, error)
}

// ConvertFunc converts the text form of a stored value, nil meaning NULL,
// into a value for the target type. A nil result is stored as NULL.
type ConvertFunc func(raw *string) (any, error)

type ColumnTarget struct {
	Column string
	Target SemanticType
}

// CoercionRequest maps columns to their requested type, in the order they
// were given.
type CoercionRequest struct {
	Columns []ColumnTarget
}

func (r *CoercionRequest) UnmarshalJSON(data []byte) error {
	var body struct {
		Columns json.RawMessage `json:"columns"`
	}

	err := json.Unmarshal(data, &body)
	if err != nil {
		return err
	}

	if len(body.Columns) == 0 || string(body.Columns) == "null" {
		r.Columns = nil
		return nil
	}

	var columns []ColumnTarget

	err = decodeOrderedObject(body.Columns, func(key string, value json.RawMessage) error {
		var target SemanticType

		if err := json.Unmarshal(value, &target); err != nil {
			return fmt.Errorf("target type of %q must be a string: %w", key, err)
		}

		columns = append(columns, ColumnTarget{Column: key, Target: target})

		return nil
	})
	if err != nil {
		return err
	}

	r.Columns = columns

	return nil
}

func (r CoercionRequest) MarshalJSON() ([]byte, error) {
	buf := []byte(`{"columns":{`)

	for i, c := range r.Columns {
		if i > 0 {
			buf = append(buf, ',')
		}

		key, err := json.Marshal(c.Column)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(c.Target)
		if err != nil {
			return nil, err
		}

		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, value...)
	}

	return append(buf, '}', '}'), nil
}

func (r CoercionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Columns, validation.Required),
	)
}

func (c ColumnTarget) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Column, validation.Required),
		validation.Field(&c.Target, validation.Required, validation.In(
			SemanticTypeString, SemanticTypeInt, SemanticTypeFloat, SemanticTypeDatetime,
		).Error("unsupported target type")),
	)
}

type CoercionStatus string

const (
	CoercionApplied      CoercionStatus = "applied"
	CoercionSkipped      CoercionStatus = "skipped"
	CoercionFailed       CoercionStatus = "failed"
	CoercionNotAttempted CoercionStatus = "not_attempted"
)

type ColumnOutcome struct {
	Column string         `json:"column"`
	Target SemanticType   `json:"target"`
	Status CoercionStatus `json:"status"`
	Reason string         `json:"reason,omitempty"`
}

type CoercionReport struct {
	Message        string          `json:"message"`
	UpdatedColumns []string        `json:"updatedColumns"`
	Outcomes       []ColumnOutcome `json:"outcomes"`
	// Error is set when a column failed, the columns before it stay applied.
	Error string `json:"error,omitempty"`
	// FailureKind classifies Error and decides the status of the response.
	FailureKind errs.Kind `json:"-"`
}

func (r *CoercionReport) StatusCode() int {
	if r.Error == "" {
		return http.StatusOK
	}

	if r.FailureKind == errs.Other {
		return http.StatusUnprocessableEntity
	}

	return errs.HTTPStatusCode(r.FailureKind)
}
