package sheets

import (
	"fmt"
	"regexp"
	"strings"
)

// Range is a parsed A1-notation range string like "Sheet1!A1:D100".
type Range struct {
	Sheet string
	Start string
	End   string // empty for single-cell ranges
}

var cellRef = regexp.MustCompile(`^[A-Za-z]{1,3}[0-9]*$`)

// ParseRange validates a range string before any fetch is attempted. The
// error names the missing separator or the malformed segment.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, fmt.Errorf("range is empty")
	}

	sheet, cells, found := strings.Cut(s, "!")
	if !found {
		return Range{}, fmt.Errorf("range %q is missing the '!' separator between sheet name and cells", s)
	}
	if sheet == "" {
		return Range{}, fmt.Errorf("range %q has an empty sheet name", s)
	}
	if cells == "" {
		return Range{}, fmt.Errorf("range %q has no cell reference after the '!' separator", s)
	}

	start, end, hasEnd := strings.Cut(cells, ":")
	if !cellRef.MatchString(start) {
		return Range{}, fmt.Errorf("range %q has a malformed start cell %q", s, start)
	}
	if hasEnd && !cellRef.MatchString(end) {
		return Range{}, fmt.Errorf("range %q has a malformed end cell %q", s, end)
	}

	return Range{Sheet: sheet, Start: start, End: end}, nil
}

// ReadRange widens the configured range to cover the whole sheet body so one
// read captures every row.
func (r Range) ReadRange() string {
	return r.Sheet + "!A1:Z1000"
}

// String reassembles the range in A1 notation.
func (r Range) String() string {
	if r.End == "" {
		return fmt.Sprintf("%s!%s", r.Sheet, r.Start)
	}
	return fmt.Sprintf("%s!%s:%s", r.Sheet, r.Start, r.End)
}
