package analysis

import (
	"time"

	"github.com/rs/zerolog/log"
)

// MergeSnapshot folds one sheet's fresh results into an existing snapshot.
// New results replace, never append to, that sheet's prior entries; other
// sheets are untouched. The returned snapshot carries a fresh LastUpdated
// timestamp.
func MergeSnapshot(old Snapshot, sheetName string, counts []EntryCount, comparisons []ComparisonResult) Snapshot {
	merged := Snapshot{
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	}

	for _, c := range old.EntryCounts {
		if c.SheetName != sheetName {
			merged.EntryCounts = append(merged.EntryCounts, c)
		}
	}
	merged.EntryCounts = append(merged.EntryCounts, counts...)

	for _, c := range old.Comparisons {
		if c.SheetName != sheetName {
			merged.Comparisons = append(merged.Comparisons, c)
		}
	}
	merged.Comparisons = append(merged.Comparisons, comparisons...)

	log.Debug().
		Str("sheet", sheetName).
		Int("entry_counts", len(merged.EntryCounts)).
		Int("comparisons", len(merged.Comparisons)).
		Msg("Merged sheet results into snapshot")

	return merged
}
