package analysis

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// ParseRow splits one raw row into its date cell and the remaining values.
// dateColumnIndex is 0-based. A nil row degrades to an empty ParsedRow
// instead of failing the batch. An out-of-range date column leaves the date
// empty and keeps the full row as values.
func ParseRow(row RawRow, dateColumnIndex, rowIndex int) ParsedRow {
	if row == nil {
		log.Debug().Int("row", rowIndex).Msg("Degrading malformed row")
		return ParsedRow{RowIndex: rowIndex}
	}

	if dateColumnIndex < 0 || dateColumnIndex >= len(row) {
		values := make([]string, len(row))
		copy(values, row)
		return ParsedRow{Values: values, RowIndex: rowIndex}
	}

	values := make([]string, 0, len(row)-1)
	values = append(values, row[:dateColumnIndex]...)
	values = append(values, row[dateColumnIndex+1:]...)

	return ParsedRow{
		Date:     row[dateColumnIndex],
		Values:   values,
		RowIndex: rowIndex,
	}
}

// ParseRows parses a whole fetch worth of raw rows, tagging each row with
// the outcome of the filter groups evaluated against the raw cells.
func ParseRows(rows [][]string, dateColumnIndex int, groups []FilterGroup) []ParsedRow {
	log.Debug().Int("rows", len(rows)).Msg("Parsing raw rows")

	parsed := make([]ParsedRow, 0, len(rows))
	for i, row := range rows {
		p := ParseRow(row, dateColumnIndex, i+1)
		if row != nil {
			p.MatchesFilters = Matches(row, groups)
		}
		parsed = append(parsed, p)
	}

	log.Debug().
		Int("total_rows", len(rows)).
		Int("parsed_rows", len(parsed)).
		Msg("Finished parsing raw rows")

	return parsed
}

// datePortion strips an embedded time of day, keeping the text before the
// first space.
func datePortion(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}
