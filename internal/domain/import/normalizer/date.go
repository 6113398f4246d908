// Package normalizer turns loosely formatted spreadsheet cells into typed values:
// dates, decimal amounts and cleaned descriptions.
package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// StrictLayout is the canonical date-time format of the import template.
const StrictLayout = "2006-01-02 15:04:05"

// Excel serial numbers above this are past 9999-12-31 and cannot be dates.
const maxExcelSerial = 2958465

// lenientLayouts are tried in order after StrictLayout. All are year-first, so
// day and month are never swapped.
var lenientLayouts = []string{
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006/1/2 15:04",
	"2006/1/2",
	"2006-1-2",
	"2006.01.02",
	"2006年1月2日",
	"2006年1月2日 15:04:05",
}

// InvalidDateError is returned when no supported format matches the cell text.
type InvalidDateError struct {
	Raw string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q", e.Raw)
}

// DateParser parses date cells. Times without an explicit zone are read in Location.
type DateParser struct {
	Location *time.Location
}

// NewDateParser returns a parser for the given location, or UTC when loc is nil.
func NewDateParser(loc *time.Location) DateParser {
	if loc == nil {
		loc = time.UTC
	}
	return DateParser{Location: loc}
}

// Parse tries the strict layout, then the lenient layouts, then an Excel serial day number.
func (p DateParser) Parse(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	loc := p.location()

	if t, err := time.ParseInLocation(StrictLayout, s, loc); err == nil {
		return t, nil
	}

	for _, layout := range lenientLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	if t, ok := fromExcelSerial(s, loc); ok {
		return t, nil
	}

	return time.Time{}, &InvalidDateError{Raw: text}
}

func (p DateParser) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// fromExcelSerial handles date cells that reach us as a raw serial number,
// which happens when a sheet stores the date unformatted.
func fromExcelSerial(s string, loc *time.Location) (time.Time, bool) {
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial < 1 || serial > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	// Serial dates carry wall-clock time only.
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), true
}
