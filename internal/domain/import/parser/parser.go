// Package parser decodes uploaded spreadsheets into loosely-typed rows.
// It supports XLSX (excelize), legacy XLS (xlsReader) and CSV (gocsv) containers
// and knows nothing about transactions: column labels are passed through verbatim.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// HeaderRows is the number of header rows preceding the data in every supported sheet.
const HeaderRows = 1

// Format identifies the container of an uploaded file
type Format string

const (
	FormatAuto Format = ""
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

var (
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

	// ErrNoRows is returned when the file holds no rows at all, not even a header.
	ErrNoRows = errors.New("file contains no rows")
	// ErrUnknownFormat is returned when the bytes are not a recognizable tabular container.
	ErrUnknownFormat = errors.New("unrecognized tabular format")
)

// RawRow is one data row keyed by the verbatim header labels.
type RawRow struct {
	Line  int // 1-based source line, header included
	Cells map[string]string
}

// Get returns the trimmed cell under label, or "" when the column is absent.
func (r RawRow) Get(label string) string {
	return strings.TrimSpace(r.Cells[label])
}

// Coalesce returns the first non-empty cell among the given labels.
func (r RawRow) Coalesce(labels ...string) string {
	for _, label := range labels {
		if v := r.Get(label); v != "" {
			return v
		}
	}
	return ""
}

// RowReader is a lazy, finite, non-restartable sequence of rows in source order.
type RowReader interface {
	Next() bool
	Row() RawRow
	Err() error
	Close() error
	Headers() []string
}

// DecodeError is a whole-file failure: nothing in the file can be imported.
type DecodeError struct {
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format == FormatAuto {
		return fmt.Sprintf("decode file: %v", e.Err)
	}
	return fmt.Sprintf("decode %s file: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// FormatFromFilename maps a file extension to a format hint.
func FormatFromFilename(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".xls":
		return FormatXLS
	case ".csv", ".txt":
		return FormatCSV
	default:
		return FormatAuto
	}
}

// DetectFormat sniffs the container from its leading bytes.
func DetectFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(data, oleMagic):
		return FormatXLS
	case looksLikeText(data):
		return FormatCSV
	default:
		return FormatAuto
	}
}

// Decode opens data as a tabular file. The hint is trusted unless it is FormatAuto,
// in which case the container is sniffed. The first row supplies the column labels.
func Decode(data []byte, hint Format) (RowReader, error) {
	format := hint
	if format == FormatAuto {
		format = DetectFormat(data)
	}

	var (
		rows RowReader
		err  error
	)
	switch format {
	case FormatXLSX:
		rows, err = newExcelReader(data)
	case FormatXLS:
		rows, err = newXLSReader(data)
	case FormatCSV:
		rows, err = newCSVReader(data)
	default:
		return nil, &DecodeError{Format: hint, Err: ErrUnknownFormat}
	}
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			return nil, err
		}
		return nil, &DecodeError{Format: format, Err: err}
	}
	return rows, nil
}

// ReadAll drains a RowReader. Intended for small files and tests.
func ReadAll(rows RowReader) ([]RawRow, error) {
	defer rows.Close()

	var out []RawRow
	for rows.Next() {
		out = append(out, rows.Row())
	}
	return out, rows.Err()
}

// tableReader turns positional records into RawRows against a fixed header.
// Concrete readers only supply the next record.
type tableReader struct {
	headers  []string
	next     func() ([]string, error)
	close    func() error
	current  RawRow
	dataRows int
	err      error
	done     bool
}

func newTableReader(headers []string, next func() ([]string, error), closeFn func() error) *tableReader {
	cleaned := make([]string, len(headers))
	for i, h := range headers {
		cleaned[i] = cleanHeader(h)
	}
	return &tableReader{headers: cleaned, next: next, close: closeFn}
}

func (t *tableReader) Next() bool {
	if t.done {
		return false
	}
	for {
		record, err := t.next()
		if err != nil {
			t.done = true
			if !errors.Is(err, errEndOfRows) {
				t.err = err
			}
			return false
		}
		if isBlank(record) {
			continue
		}

		t.dataRows++
		cells := make(map[string]string, len(t.headers))
		for i, label := range t.headers {
			if label == "" {
				continue
			}
			if _, seen := cells[label]; seen {
				// Duplicate labels: the leftmost column wins.
				continue
			}
			if i < len(record) {
				cells[label] = record[i]
			} else {
				cells[label] = ""
			}
		}
		t.current = RawRow{Line: t.dataRows + HeaderRows, Cells: cells}
		return true
	}
}

func (t *tableReader) Row() RawRow {
	return t.current
}

func (t *tableReader) Err() error {
	return t.err
}

func (t *tableReader) Headers() []string {
	return t.headers
}

func (t *tableReader) Close() error {
	t.done = true
	if t.close == nil {
		return nil
	}
	closeFn := t.close
	t.close = nil
	return closeFn()
}

// errEndOfRows signals normal exhaustion from a record source.
var errEndOfRows = errors.New("end of rows")

func cleanHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.TrimSpace(h)
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// readHeader pulls records until the first non-blank one, which becomes the header.
func readHeader(next func() ([]string, error)) ([]string, error) {
	for {
		record, err := next()
		if errors.Is(err, errEndOfRows) {
			return nil, ErrNoRows
		}
		if err != nil {
			return nil, err
		}
		if !isBlank(record) {
			return record, nil
		}
	}
}
