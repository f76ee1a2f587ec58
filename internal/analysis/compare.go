package analysis

import (
	"fmt"
	"strconv"
	"strings"
)

// CompareAdjacentRows computes positional numeric deltas between each
// adjacent pair of matching rows. Cells that do not parse as numbers count
// as 0, and only columns with a non-zero percentage change are reported.
// The percentage change is 0 when the previous value is 0.
func CompareAdjacentRows(rows []ParsedRow, sheetName string) []ComparisonResult {
	var matching []ParsedRow
	for _, row := range rows {
		if row.MatchesFilters {
			matching = append(matching, row)
		}
	}

	var results []ComparisonResult
	for i := 1; i < len(matching); i++ {
		prev := matching[i-1]
		curr := matching[i]

		width := len(prev.Values)
		if len(curr.Values) > width {
			width = len(curr.Values)
		}

		var diffs []ColumnDifference
		for col := 0; col < width; col++ {
			previous := parseNumber(cellAt(prev.Values, col))
			current := parseNumber(cellAt(curr.Values, col))

			pct := 0.0
			if previous != 0 {
				pct = (current - previous) / previous * 100
			}
			if pct == 0 {
				continue
			}

			diffs = append(diffs, ColumnDifference{
				Column:           col + 1,
				ColumnName:       fmt.Sprintf("Column %d", col+1),
				Previous:         previous,
				Current:          current,
				PercentageChange: pct,
			})
		}

		if len(diffs) > 0 {
			results = append(results, ComparisonResult{
				SheetName:   sheetName,
				Date1:       datePortion(prev.Date),
				Date2:       datePortion(curr.Date),
				Differences: diffs,
			})
		}
	}

	return results
}

func cellAt(values []string, index int) string {
	if index < len(values) {
		return values[index]
	}
	return ""
}

// parseNumber reads a cell as a float, tolerating surrounding whitespace and
// thousands separators. Anything unparseable is 0.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n
}
