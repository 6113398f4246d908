package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateParser_Parse(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*60*60)
	parser := NewDateParser(shanghai)

	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{"strict layout", "2024-01-01 12:00:00", time.Date(2024, 1, 1, 12, 0, 0, 0, shanghai)},
		{"strict layout with padding", "  2024-03-05 08:09:10 ", time.Date(2024, 3, 5, 8, 9, 10, 0, shanghai)},
		{"date only", "2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, shanghai)},
		{"slashes", "2024/02/29", time.Date(2024, 2, 29, 0, 0, 0, 0, shanghai)},
		{"slashes unpadded with time", "2024/2/9 07:30", time.Date(2024, 2, 9, 7, 30, 0, 0, shanghai)},
		{"dots", "2024.12.31", time.Date(2024, 12, 31, 0, 0, 0, 0, shanghai)},
		{"chinese", "2024年1月2日", time.Date(2024, 1, 2, 0, 0, 0, 0, shanghai)},
		{"excel serial", "45292", time.Date(2024, 1, 1, 0, 0, 0, 0, shanghai)},
		{"excel serial with time", "45292.5", time.Date(2024, 1, 1, 12, 0, 0, 0, shanghai)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parser.Parse(tc.input)
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(got), "expected %v, got %v", tc.expected, got)
		})
	}
}

func TestDateParser_RFC3339KeepsOffset(t *testing.T) {
	parser := NewDateParser(time.UTC)

	got, err := parser.Parse("2024-01-01T12:00:00+08:00")
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 1, 1, 4, 0, 0, 0, time.UTC).Equal(got))
}

func TestDateParser_Invalid(t *testing.T) {
	parser := NewDateParser(nil)

	inputs := []string{
		"not-a-date",
		"2024-13-01",
		"31/12/2024",
		"12/31/2024",
		"20240101",
		"-5",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := parser.Parse(input)

			var dateErr *InvalidDateError
			require.ErrorAs(t, err, &dateErr)
			assert.Equal(t, input, dateErr.Raw)
		})
	}
}

func TestDateParser_ZeroValueUsesUTC(t *testing.T) {
	var parser DateParser

	got, err := parser.Parse("2024-01-01 00:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
}
