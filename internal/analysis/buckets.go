package analysis

import (
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultWindowDays is the trailing window covered by CountPerDay.
const DefaultWindowDays = 7

const dayFormat = "2006-01-02"

// CountPerDay buckets matching rows into trailing daily counts. It always
// returns exactly windowDays entries, most recent day first, zero-count days
// included. A row counts toward a day when the date portion of its date cell
// (the text before any embedded time of day) equals that day; rows with
// unusable dates simply never match a bucket.
func CountPerDay(rows []ParsedRow, sheetName string, windowDays int, referenceDate time.Time) []EntryCount {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	counts := make([]EntryCount, 0, windowDays)
	for i := 0; i < windowDays; i++ {
		day := referenceDate.AddDate(0, 0, -i).Format(dayFormat)

		count := 0
		for _, row := range rows {
			if row.MatchesFilters && datePortion(row.Date) == day {
				count++
			}
		}

		counts = append(counts, EntryCount{Date: day, Count: count, SheetName: sheetName})
	}

	log.Debug().
		Str("sheet", sheetName).
		Int("window_days", windowDays).
		Int("rows", len(rows)).
		Msg("Bucketed rows into daily counts")

	return counts
}
