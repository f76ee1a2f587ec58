package export

import (
	"encoding/csv"
	"regexp"
	"strings"
	"time"

	"sheetwatch/internal/analysis"
)

// FailureMarker is the cell rendered in place of row data when a profile's
// fetch failed.
const FailureMarker = "fetch failed"

// Report is the per-profile input to Render.
type Report struct {
	ProfileName string
	Current     []string // today's analysis-column entries
	Change      *analysis.ColumnChange
	Failed      bool
}

// Render formats a report as three labeled tables: the current entries, the
// entries removed since the comparison day, and the entries added since it.
// Cells are quoted per CSV rules, so embedded delimiters, quotes and
// newlines survive; absent values render as empty sections. A failed fetch
// renders a failure marker instead of entry rows.
func Render(r Report, delimiter rune) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if delimiter != 0 {
		w.Comma = delimiter
	}

	since := ""
	if r.Change != nil {
		since = r.Change.Date1
	}

	if r.Failed {
		writeSection(w, &b, "Current Entries", []string{FailureMarker})
		writeSection(w, &b, "Removed Since Comparison Day", nil)
		writeSection(w, &b, "Added Since Comparison Day", nil)
		return b.String()
	}

	writeSection(w, &b, "Current Entries", r.Current)
	writeSection(w, &b, sectionLabel("Removed Since", since), removed(r.Change))
	writeSection(w, &b, sectionLabel("Added Since", since), added(r.Change))
	return b.String()
}

func writeSection(w *csv.Writer, b *strings.Builder, label string, entries []string) {
	w.Write([]string{label})
	for _, entry := range entries {
		w.Write([]string{entry})
	}
	w.Flush()
	b.WriteString("\n")
}

func sectionLabel(prefix, since string) string {
	if since == "" {
		return prefix + " Comparison Day"
	}
	return prefix + " " + since
}

func removed(c *analysis.ColumnChange) []string {
	if c == nil {
		return nil
	}
	return c.Removed
}

func added(c *analysis.ColumnChange) []string {
	if c == nil {
		return nil
	}
	return c.Added
}

var slugStrip = regexp.MustCompile(`[^a-z0-9-]+`)

// Filename builds the export file name:
// <profile>-entries[-vs-<compareDate>]-<YYYY-MM-DD>.<ext>
func Filename(profileName, compareDate string, now time.Time, ext string) string {
	name := slugStrip.ReplaceAllString(strings.ToLower(strings.ReplaceAll(profileName, " ", "-")), "")
	if name == "" {
		name = "profile"
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteString("-entries")
	if compareDate != "" {
		b.WriteString("-vs-")
		b.WriteString(compareDate)
	}
	b.WriteString("-")
	b.WriteString(now.Format("2006-01-02"))
	b.WriteString(".")
	b.WriteString(ext)
	return b.String()
}
