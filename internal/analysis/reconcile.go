package analysis

import (
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

// ReconcileColumn computes which identifiers appeared or disappeared in a
// column between two calendar days. column is 1-based and indexes the
// post-date-removal values of each row. Only rows passing the filters count.
// Entries are trimmed and empties dropped; duplicates and input order are
// preserved, membership is exact string equality. Returns nil when nothing
// was added or removed.
func ReconcileColumn(rows []ParsedRow, column int, date1, date2 string) *ColumnChange {
	day1Entries := DayEntries(rows, column, date1)
	day2Entries := DayEntries(rows, column, date2)

	var added, removed []string
	for _, v := range day2Entries {
		if !slices.Contains(day1Entries, v) {
			added = append(added, v)
		}
	}
	for _, v := range day1Entries {
		if !slices.Contains(day2Entries, v) {
			removed = append(removed, v)
		}
	}

	if len(added) == 0 && len(removed) == 0 {
		return nil
	}

	log.Debug().
		Int("column", column).
		Str("date1", date1).
		Str("date2", date2).
		Int("added", len(added)).
		Int("removed", len(removed)).
		Msg("Reconciled column between days")

	return &ColumnChange{
		Added:   added,
		Removed: removed,
		Column:  column,
		Date1:   date1,
		Date2:   date2,
	}
}

// DayEntries collects the trimmed, non-empty values of one column across
// the matching rows of a single day, in input order.
func DayEntries(rows []ParsedRow, column int, day string) []string {
	var entries []string
	for _, row := range rows {
		if !row.MatchesFilters || datePortion(row.Date) != day {
			continue
		}
		if column < 1 || column > len(row.Values) {
			continue
		}
		v := strings.TrimSpace(row.Values[column-1])
		if v == "" {
			continue
		}
		entries = append(entries, v)
	}
	return entries
}
