package parser

import (
	"bytes"
	"fmt"

	"github.com/shakinm/xlsReader/xls"
)

// newXLSReader reads the first sheet of a legacy BIFF (.xls) workbook.
// The format has no streaming reader, so the sheet is materialized up front.
func newXLSReader(data []byte) (RowReader, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open .xls file: %w", err)
	}
	if len(workbook.GetSheets()) == 0 {
		return nil, ErrNoSheets
	}

	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("failed to read first sheet: %w", err)
	}

	var records [][]string
	for _, row := range sheet.GetRows() {
		var record []string
		for _, cell := range row.GetCols() {
			record = append(record, cell.GetString())
		}
		records = append(records, record)
	}

	pos := 0
	next := func() ([]string, error) {
		if pos >= len(records) {
			return nil, errEndOfRows
		}
		record := records[pos]
		pos++
		return record, nil
	}

	headers, err := readHeader(next)
	if err != nil {
		return nil, err
	}
	return newTableReader(headers, next, nil), nil
}
