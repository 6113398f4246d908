package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gocarina/gocsv"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// newCSVReader builds a RowReader over delimited text. The delimiter is detected
// from the header line; non-UTF-8 input is decoded as GB18030, the encoding
// spreadsheet tools use for Chinese CSV exports.
func newCSVReader(data []byte) (RowReader, error) {
	text, err := normalizeCSVBytes(data)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(text)) == 0 {
		return nil, ErrNoRows
	}

	reader := gocsv.LazyCSVReader(bytes.NewReader(text))
	if r, ok := reader.(*csv.Reader); ok {
		r.Comma = detectDelimiter(firstLine(text))
		r.FieldsPerRecord = -1 // Variable field count
	}

	next := func() ([]string, error) {
		record, err := reader.Read()
		if err == io.EOF {
			return nil, errEndOfRows
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("line %d: %w", parseErr.Line, parseErr.Err)
			}
			return nil, err
		}
		return record, nil
	}

	headers, err := readHeader(next)
	if err != nil {
		return nil, err
	}
	return newTableReader(headers, next, nil), nil
}

// normalizeCSVBytes strips a UTF-8 BOM and transcodes GB18030 input to UTF-8.
func normalizeCSVBytes(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return data, nil
	}
	decoded, _, err := transform.Bytes(simplifiedchinese.GB18030.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("transcode GB18030: %w", err)
	}
	return decoded, nil
}

func firstLine(text []byte) string {
	line, _, _ := strings.Cut(string(text), "\n")
	return strings.TrimRight(line, "\r")
}

// detectDelimiter picks the most frequent candidate separator in the header line.
func detectDelimiter(line string) rune {
	delimiters := []rune{',', ';', '\t', '|'}
	best := ','
	bestCount := 0
	for _, d := range delimiters {
		count := strings.Count(line, string(d))
		if count > bestCount {
			bestCount = count
			best = d
		}
	}
	return best
}

// looksLikeText reports whether the leading bytes are plausibly delimited text
// rather than an unknown binary container.
func looksLikeText(data []byte) bool {
	sample := data
	if len(sample) > 512 {
		sample = sample[:512]
	}
	if len(sample) == 0 {
		return true
	}
	for _, b := range sample {
		if b == 0 {
			return false
		}
		if b < 0x09 || (b > 0x0D && b < 0x20) {
			return false
		}
	}
	return true
}
