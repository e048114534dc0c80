// Package sheet reads uploaded spreadsheets, CSV or XLSX, into a grid of
// text cells and infers a storage type for every column.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv or .xlsx")
	ErrNoSheet           = errors.New("sheet does not exist")
	ErrEmpty             = errors.New("file has no header row")
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"

	// CSVSheetName names the single sheet of a CSV file.
	CSVSheetName = "csv"
)

// Table is the raw content of one sheet. Every row has as many cells as
// there are headers.
type Table struct {
	Sheet   string
	Headers []string
	Rows    [][]string
}

func FormatOf(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}

	return "", ErrUnsupportedFormat
}

// SheetNames lists the sheets of a workbook. A CSV file has a single sheet.
func SheetNames(fileName string, data []byte) ([]string, error) {
	format, err := FormatOf(fileName)
	if err != nil {
		return nil, err
	}

	if format == FormatCSV {
		return []string{CSVSheetName}, nil
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	return f.GetSheetList(), nil
}

// Read parses sheet from the file. The sheet name is ignored for CSV files.
func Read(fileName string, data []byte, sheet string) (*Table, error) {
	format, err := FormatOf(fileName)
	if err != nil {
		return nil, err
	}

	var rows [][]string

	switch format {
	case FormatCSV:
		sheet = CSVSheetName

		rows, err = readCSV(data)
	case FormatXLSX:
		rows, err = readXLSX(data, sheet)
	}

	if err != nil {
		return nil, err
	}

	return newTable(sheet, rows)
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows [][]string

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}

		rows = append(rows, record)
	}

	return rows, nil
}

// sniffDelimiter picks the most frequent of the usual delimiters on the
// header line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	best, bestCount := ',', 0

	for _, d := range []rune{',', ';', '\t', '|'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}

	return best
}

func readXLSX(data []byte, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSheet, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}

	return rows, nil
}

func newTable(sheet string, rows [][]string) (*Table, error) {
	// Leading blank rows are common above the header in workbooks.
	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
	}

	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	headers := trimTrailingBlanks(rows[0])
	width := len(headers)

	for _, row := range rows[1:] {
		if n := len(trimTrailingBlanks(row)); n > width {
			width = n
		}
	}

	headers = pad(headers, width)

	table := &Table{
		Sheet:   sheet,
		Headers: headers,
		Rows:    make([][]string, 0, len(rows)-1),
	}

	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}

		if len(row) > width {
			row = row[:width]
		}

		table.Rows = append(table.Rows, pad(row, width))
	}

	return table, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}

func trimTrailingBlanks(row []string) []string {
	n := len(row)
	for n > 0 && strings.TrimSpace(row[n-1]) == "" {
		n--
	}

	return row[:n]
}

func pad(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)

	return out
}
