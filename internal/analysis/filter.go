package analysis

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// Matches reports whether a raw row satisfies every filter group. An empty
// group list always matches. Each group combines its own filters with the
// group's logical operator; groups combine with AND.
func Matches(row RawRow, groups []FilterGroup) bool {
	for _, group := range groups {
		if !matchesGroup(row, group) {
			return false
		}
	}
	return true
}

func matchesGroup(row RawRow, group FilterGroup) bool {
	if len(group.Filters) == 0 {
		return true
	}

	if group.LogicalOperator == LogicalOr {
		for _, f := range group.Filters {
			if matchesFilter(row, f) {
				return true
			}
		}
		return false
	}

	for _, f := range group.Filters {
		if !matchesFilter(row, f) {
			return false
		}
	}
	return true
}

func matchesFilter(row RawRow, f FilterConfig) bool {
	cell := ""
	if f.Column >= 1 && f.Column <= len(row) {
		cell = row[f.Column-1]
	}

	cell = strings.ToLower(cell)
	value := strings.ToLower(f.Value)

	switch f.Operator {
	case OpEquals:
		return cell == value
	case OpContains:
		return strings.Contains(cell, value)
	case OpStartsWith:
		return strings.HasPrefix(cell, value)
	case OpEndsWith:
		return strings.HasSuffix(cell, value)
	default:
		// Permissive fallback: an unknown operator never excludes a row.
		log.Debug().Str("operator", string(f.Operator)).Msg("Unknown filter operator, treating as match")
		return true
	}
}
