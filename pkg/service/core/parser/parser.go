// Package parser reads uploads and credentials off incoming requests.
package parser

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"slices"
	"strings"
)

const (
	HeaderAuthorization          = "Authorization"
	HeaderContentType            = "Content-Type"
	ContentTypeMultipartFormData = "multipart/form-data"
)

var (
	ErrNotExist = errors.New("form field does not exist")
	ErrTooLarge = errors.New("upload too large")
)

// File is an uploaded file spooled to disk. Field is the form name it was
// sent under, FileName the name the client gave it.
type File struct {
	Field    string
	FileName string
	Size     int64
	Reader   io.ReadCloser
}

// spooledFile reads a temporary file and removes it on Close.
type spooledFile struct {
	*os.File
}

func (f *spooledFile) Close() error {
	defer func() {
		_ = os.Remove(f.Name())
	}()

	return f.File.Close()
}

// UploadForm is a parsed multipart upload. Named text fields are kept in
// memory, every other part is spooled to a temporary file.
type UploadForm struct {
	fields map[string]string
	files  []*File
}

// Field returns the trimmed value of a text field, or "" when it was not sent.
func (f *UploadForm) Field(name string) string {
	return f.fields[name]
}

// File returns the first file uploaded under the form name.
func (f *UploadForm) File(field string) (*File, error) {
	for _, file := range f.files {
		if file.Field == field {
			return file, nil
		}
	}

	return nil, ErrNotExist
}

// Close removes the temporary files of every uploaded file.
func (f *UploadForm) Close() error {
	var errs []error

	for _, file := range f.files {
		errs = append(errs, file.Reader.Close())
	}

	return errors.Join(errs...)
}

// ReadUploadForm parses the multipart body of r. Parts named in fields are
// read as text, unnamed parts are skipped. A positive maxBytes caps the
// whole body and exceeding it fails with ErrTooLarge. On error no temporary
// file is left behind.
func ReadUploadForm(r *http.Request, maxBytes int64, fields ...string) (*UploadForm, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get(HeaderContentType))
	if err != nil || mediaType != ContentTypeMultipartFormData {
		return nil, fmt.Errorf("expected %s to be %s", HeaderContentType, ContentTypeMultipartFormData)
	}

	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	}

	form := &UploadForm{
		fields: map[string]string{},
	}

	err = form.read(r, fields)
	if err != nil {
		_ = form.Close()

		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, maxErr.Limit)
		}

		return nil, err
	}

	return form, nil
}

func (f *UploadForm) read(r *http.Request, fields []string) error {
	reader, err := r.MultipartReader()
	if err != nil {
		return fmt.Errorf("creating multipart reader: %w", err)
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil
		}

		if err != nil {
			return fmt.Errorf("reading next part: %w", err)
		}

		name := part.FormName()
		if name == "" {
			continue
		}

		if slices.Contains(fields, name) {
			data, err := io.ReadAll(part)
			if err != nil {
				return fmt.Errorf("reading field %s: %w", name, err)
			}

			f.fields[name] = strings.TrimSpace(string(data))

			continue
		}

		file, err := spool(part)
		if err != nil {
			return fmt.Errorf("spooling %s: %w", name, err)
		}

		file.Field = name
		file.FileName = part.FileName()

		f.files = append(f.files, file)
	}
}

// spool copies r into a temporary file and rewinds it.
func spool(r io.Reader) (*File, error) {
	tmp, err := os.CreateTemp("", "datavask-upload")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}

	spooled := &spooledFile{File: tmp}

	size, err := io.Copy(tmp, r)
	if err != nil {
		_ = spooled.Close()
		return nil, err
	}

	_, err = tmp.Seek(0, io.SeekStart)
	if err != nil {
		_ = spooled.Close()
		return nil, fmt.Errorf("seeking to start of file: %w", err)
	}

	return &File{
		Size:   size,
		Reader: spooled,
	}, nil
}

func BearerTokenFromRequest(header string, r *http.Request) (string, error) {
	input := r.Header.Get(header)
	if len(input) == 0 {
		return "", fmt.Errorf("missing '%s' header", header)
	}

	scheme, token, ok := strings.Cut(input, " ")
	if !ok || !strings.EqualFold(strings.TrimSpace(scheme), "bearer") {
		return "", fmt.Errorf("invalid token format, expected 'Bearer <token>'")
	}

	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("empty bearer token")
	}

	return token, nil
}
