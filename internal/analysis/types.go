package analysis

// RawRow is one spreadsheet row as delivered by the sheets client, with
// every cell coerced to a string.
type RawRow []string

// ParsedRow is a raw row split into its date cell and the remaining values.
type ParsedRow struct {
	Date           string   `json:"date"`
	Values         []string `json:"values"`
	RowIndex       int      `json:"rowIndex"` // 1-based, input order
	MatchesFilters bool     `json:"matchesFilters"`
}

// Operator names a filter comparison. Comparisons are case-insensitive.
type Operator string

const (
	OpEquals     Operator = "equals"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"
)

// FilterConfig is a single filter predicate. Column is 1-based and indexes
// the original raw row, before the date column is removed.
type FilterConfig struct {
	Column   int      `json:"column"`
	Value    string   `json:"value"`
	Operator Operator `json:"operator"`
}

// LogicalOperator combines the filters within a group.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// FilterGroup combines its filters with its own logical operator. Groups
// always combine with AND across a group list.
type FilterGroup struct {
	Filters         []FilterConfig  `json:"filters"`
	LogicalOperator LogicalOperator `json:"logicalOperator"`
}

// EntryCount is the number of matching entries for one sheet on one day.
type EntryCount struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Count     int    `json:"count"`
	SheetName string `json:"sheetName"`
}

// DeltaChange is the difference between today's count and the comparison
// day's count. Yesterday holds the comparison day's count regardless of
// which day was actually compared against.
type DeltaChange struct {
	Today            int     `json:"today"`
	Yesterday        int     `json:"yesterday"`
	Change           int     `json:"change"`
	PercentageChange float64 `json:"percentageChange"`
}

// ColumnChange is the set reconciliation of one column between two days.
type ColumnChange struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Column  int      `json:"column"`
	Date1   string   `json:"date1"`
	Date2   string   `json:"date2"`
}

// ColumnDifference is a non-zero numeric change in one positional column
// between two adjacent rows.
type ColumnDifference struct {
	Column           int     `json:"column"`
	ColumnName       string  `json:"columnName"`
	Previous         float64 `json:"previous"`
	Current          float64 `json:"current"`
	PercentageChange float64 `json:"percentageChange"`
}

// ComparisonResult holds the numeric differences between one adjacent row
// pair of a sheet.
type ComparisonResult struct {
	SheetName   string             `json:"sheetName"`
	Date1       string             `json:"date1"`
	Date2       string             `json:"date2"`
	Differences []ColumnDifference `json:"differences"`
}

// Snapshot is the aggregate analytics document persisted after each run.
type Snapshot struct {
	EntryCounts []EntryCount       `json:"entryCounts"`
	Comparisons []ComparisonResult `json:"comparisons"`
	LastUpdated string             `json:"lastUpdated"` // ISO-8601
}

// FetchResult tags one profile's fetch as either a usable row set or a
// failure. Failed results carry the cause and are excluded from delta and
// column computations.
type FetchResult struct {
	Rows   []ParsedRow
	Failed bool
	Err    error
}

// Ok returns a successful fetch result.
func Ok(rows []ParsedRow) FetchResult {
	return FetchResult{Rows: rows}
}

// Fail returns a failed fetch result carrying err.
func Fail(err error) FetchResult {
	return FetchResult{Failed: true, Err: err}
}
