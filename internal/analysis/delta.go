package analysis

import (
	"sort"

	"github.com/rs/zerolog/log"
)

// Delta computes the change between the most recent entry count for a sheet
// and a comparison day. customDate selects an exact comparison day when
// non-empty; when it is not found and fallback is true, the second most
// recent entry stands in. Returns nil when no comparison day can be
// resolved (fewer than two usable data points).
func Delta(counts []EntryCount, sheetName string, customDate string, fallback bool) *DeltaChange {
	var entries []EntryCount
	for _, c := range counts {
		if c.SheetName == sheetName {
			entries = append(entries, c)
		}
	}
	if len(entries) == 0 {
		return nil
	}

	// ISO dates sort correctly as strings.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date > entries[j].Date
	})

	today := entries[0]
	comparison, ok := resolveComparison(entries, customDate, fallback)
	if !ok {
		log.Debug().
			Str("sheet", sheetName).
			Str("custom_date", customDate).
			Int("entries", len(entries)).
			Msg("No comparison day available, skipping delta")
		return nil
	}

	change := today.Count - comparison.Count
	pct := 0.0
	if comparison.Count != 0 {
		pct = float64(change) / float64(comparison.Count) * 100
	}

	return &DeltaChange{
		Today:            today.Count,
		Yesterday:        comparison.Count,
		Change:           change,
		PercentageChange: pct,
	}
}

// resolveComparison picks the comparison-day entry from a date-descending
// entry list.
func resolveComparison(entries []EntryCount, customDate string, fallback bool) (EntryCount, bool) {
	if customDate != "" {
		for _, e := range entries {
			if e.Date == customDate {
				return e, true
			}
		}
		if !fallback {
			return EntryCount{}, false
		}
	}

	if len(entries) < 2 {
		return EntryCount{}, false
	}
	return entries[1], true
}
