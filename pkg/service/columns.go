package service

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SemanticType is the coarse type a column is treated as by coercion and filtering.
type SemanticType string

const (
	SemanticTypeString   SemanticType = "string"
	SemanticTypeInt      SemanticType = "int"
	SemanticTypeFloat    SemanticType = "float"
	SemanticTypeDatetime SemanticType = "datetime"
)

func (t SemanticType) Valid() bool {
	switch t {
	case SemanticTypeString, SemanticTypeInt, SemanticTypeFloat, SemanticTypeDatetime:
		return true
	}

	return false
}

func (t SemanticType) Numeric() bool {
	return t == SemanticTypeInt || t == SemanticTypeFloat
}

// StorageType is the column type used when a column is rewritten to t.
func (t SemanticType) StorageType() string {
	switch t {
	case SemanticTypeInt:
		return "BIGINT"
	case SemanticTypeFloat:
		return "DOUBLE PRECISION"
	case SemanticTypeDatetime:
		return "TIMESTAMP WITHOUT TIME ZONE"
	default:
		return "TEXT"
	}
}

var storageTypes = map[string]SemanticType{
	"smallint":                    SemanticTypeInt,
	"integer":                     SemanticTypeInt,
	"bigint":                      SemanticTypeInt,
	"real":                        SemanticTypeFloat,
	"double precision":            SemanticTypeFloat,
	"numeric":                     SemanticTypeFloat,
	"text":                        SemanticTypeString,
	"character varying":           SemanticTypeString,
	"character":                   SemanticTypeString,
	"varchar":                     SemanticTypeString,
	"char":                        SemanticTypeString,
	"timestamp without time zone": SemanticTypeDatetime,
	"timestamp with time zone":    SemanticTypeDatetime,
	"timestamp":                   SemanticTypeDatetime,
	"date":                        SemanticTypeDatetime,
}

// SemanticTypeFromStorage maps a storage type name as reported by the
// catalog, such as "numeric(10,2)", to its semantic type. Unknown types
// are treated as strings.
func SemanticTypeFromStorage(storageType string) SemanticType {
	if t, ok := storageTypes[BaseStorageType(storageType)]; ok {
		return t
	}

	return SemanticTypeString
}

// BaseStorageType strips type modifiers, "character varying(20)" becomes
// "character varying" and "timestamp(3) without time zone" becomes
// "timestamp without time zone".
func BaseStorageType(storageType string) string {
	s := strings.ToLower(strings.TrimSpace(storageType))

	for {
		open := strings.IndexByte(s, '(')
		if open < 0 {
			break
		}

		end := strings.IndexByte(s[open:], ')')
		if end < 0 {
			s = s[:open]
			break
		}

		s = s[:open] + s[open+end+1:]
	}

	return strings.Join(strings.Fields(s), " ")
}

type ColumnDescriptor struct {
	Name         string       `json:"name"`
	StorageType  string       `json:"storageType"`
	SemanticType SemanticType `json:"semanticType"`
}

type SchemaStorage interface {
	// Describe returns the user visible columns of table in ordinal order.
	Describe(ctx context.Context, table string) ([]ColumnDescriptor, error)
	TypeOf(ctx context.Context, table, column string) (*ColumnDescriptor, error)
}

type ColumnRename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type RemoveColumnsDto struct {
	Columns []string `json:"columns"`
}

func (d RemoveColumnsDto) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Columns, validation.Required, validation.Each(validation.Required)),
	)
}

type RenameColumnsDto struct {
	Renames []ColumnRename `json:"renames"`
}

func (d RenameColumnsDto) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Renames, validation.Required),
	)
}

func (r ColumnRename) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.Required),
		validation.Field(&r.To, validation.Required),
	)
}

type ColumnsStorage interface {
	DropColumns(ctx context.Context, table string, columns []string) error
	RenameColumns(ctx context.Context, table string, renames []ColumnRename) error
}

type ColumnsService interface {
	GetColumns(ctx context.Context, dataset string) ([]ColumnDescriptor, error)
	RemoveColumns(ctx context.Context, dataset string, input RemoveColumnsDto) (*ColumnsResult, error)
	RenameColumns(ctx context.Context, dataset string, input RenameColumnsDto) (*ColumnsResult, error)
}

type ColumnsResult struct {
	Message string             `json:"message"`
	Columns []ColumnDescriptor `json:"columns"`
}
