package service

import (
	"context"
	"io"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

type DatasetStorage interface {
	// CreateDataset creates the canonical table and its working copy from
	// imp and registers the dataset. An existing dataset with the same
	// name is replaced.
	CreateDataset(ctx context.Context, imp *Import) (*Dataset, error)
	GetDataset(ctx context.Context, name string) (*Dataset, error)
	GetDatasets(ctx context.Context) ([]*Dataset, error)
	// DeleteDataset drops both tables and removes the registration.
	DeleteDataset(ctx context.Context, name string) error
	// TouchDataset records that the working copy changed and returns the
	// new revision.
	TouchDataset(ctx context.Context, name string) (int64, error)
}

type DatasetService interface {
	GetDatasets(ctx context.Context) (*DatasetsList, error)
	Upload(ctx context.Context, input *UploadDto) (*UploadResult, error)
	DeleteDataset(ctx context.Context, name string) error
	GetRows(ctx context.Context, name string) (*RowsResult, error)
	GetOverview(ctx context.Context, name string) (*Overview, error)
}

type Dataset struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	SourceFile    string            `json:"sourceFile"`
	Sheet         string            `json:"sheet"`
	HeaderMapping map[string]string `json:"headerMapping"`
	Revision      int64             `json:"revision"`
	Created       time.Time         `json:"created"`
	LastModified  time.Time         `json:"lastModified"`
}

type DatasetsList struct {
	Datasets []*Dataset `json:"datasets"`
}

// Import is a parsed upload ready to be materialized as a table.
type Import struct {
	Name       string
	SourceFile string
	Sheet      string
	// HeaderMapping maps original headers to column names.
	HeaderMapping map[string]string
	Columns       []ImportColumn
	// Rows hold values matching the storage type of each column.
	Rows [][]any
}

type ImportColumn struct {
	Name        string
	StorageType string
}

// UploadDto is the multipart upload, File is closed by the caller.
type UploadDto struct {
	FileName string
	Sheet    string
	Name     string
	File     io.Reader
}

func (d UploadDto) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.FileName, validation.Required),
		validation.Field(&d.File, validation.Required),
	)
}

// UploadResult either lists the sheets of a workbook, when no sheet was
// chosen, or describes the created dataset.
type UploadResult struct {
	Message string             `json:"message"`
	Sheets  []string           `json:"sheets,omitempty"`
	Dataset *Dataset           `json:"dataset,omitempty"`
	Columns []ColumnDescriptor `json:"columns,omitempty"`
	Rows    int                `json:"rows"`
}

type RowsResult struct {
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}

type Overview struct {
	Rows           int                     `json:"rows"`
	Columns        int                     `json:"columns"`
	DuplicateRows  int                     `json:"duplicateRows"`
	UniqueRows     int                     `json:"uniqueRows"`
	MissingValues  int                     `json:"missingValues"`
	ColumnTypes    map[string]SemanticType `json:"columnTypes"`
	NumericColumns []string                `json:"numericColumns"`
}

// SourceArchive keeps a copy of uploaded source files.
type SourceArchive interface {
	Store(ctx context.Context, dataset, fileName string, data []byte) error
	Remove(ctx context.Context, dataset string) error
}
