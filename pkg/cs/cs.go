// Package cs keeps the uploaded source files of datasets in a Google Cloud
// Storage bucket.
package cs

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/navikt/datavask-backend/pkg/service"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var ErrBucketNotExist = errors.New("bucket does not exist")

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeData = "application/octet-stream"

	MetadataDataset = "dataset"
)

var _ service.SourceArchive = &Client{}

// Client archives every source file under a prefix named after its dataset.
type Client struct {
	client *storage.Client
	bucket string
}

func prefix(dataset string) string {
	return dataset + "/"
}

func contentType(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".csv":
		return ContentTypeCSV
	case ".xlsx":
		return ContentTypeXLSX
	default:
		return ContentTypeData
	}
}

// Store replaces whatever is archived for dataset with data.
func (c *Client) Store(ctx context.Context, dataset, fileName string, data []byte) error {
	_, err := c.deleteObjects(ctx, prefix(dataset))
	if err != nil {
		return err
	}

	w := c.client.Bucket(c.bucket).Object(prefix(dataset) + path.Base(fileName)).NewWriter(ctx)
	w.ContentType = contentType(fileName)
	w.Metadata = map[string]string{
		MetadataDataset: dataset,
	}

	_, err = w.Write(data)
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("writing object: %w", err)
	}

	err = w.Close()
	if err != nil {
		if errors.Is(err, storage.ErrBucketNotExist) {
			return ErrBucketNotExist
		}

		return fmt.Errorf("closing writer: %w", err)
	}

	return nil
}

// Remove deletes the archived files of dataset, if any.
func (c *Client) Remove(ctx context.Context, dataset string) error {
	_, err := c.deleteObjects(ctx, prefix(dataset))

	return err
}

func (c *Client) deleteObjects(ctx context.Context, prefix string) (int, error) {
	n := 0

	it := c.client.Bucket(c.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		obj, err := it.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}

			if errors.Is(err, storage.ErrBucketNotExist) {
				return 0, ErrBucketNotExist
			}

			return 0, fmt.Errorf("iterating objects: %w", err)
		}

		err = c.client.Bucket(c.bucket).Object(obj.Name).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return 0, fmt.Errorf("deleting object %s: %w", obj.Name, err)
		}

		n++
	}

	return n, nil
}

// New creates a client for bucket, endpoint overrides the storage API
// location and disables authentication, for use with an emulator.
func New(ctx context.Context, bucket, endpoint string) (*Client, error) {
	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &Client{
		client: client,
		bucket: bucket,
	}, nil
}

func NewFromClient(bucket string, client *storage.Client) *Client {
	return &Client{
		client: client,
		bucket: bucket,
	}
}

var _ service.SourceArchive = NoopArchive{}

// NoopArchive is used when archiving is disabled.
type NoopArchive struct{}

func (NoopArchive) Store(context.Context, string, string, []byte) error {
	return nil
}

func (NoopArchive) Remove(context.Context, string) error {
	return nil
}
