package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sheetwatch/internal/analysis"
)

// Profile is one tracked data source: a spreadsheet range with an embedded
// date column, optional filters, and optional analysis columns. DateColumn,
// AnalysisColumn and ExtraColumn are 1-based; DateColumn indexes the raw
// row, the analysis columns index the post-date-removal values.
type Profile struct {
	ID             string
	Name           string
	SpreadsheetID  string
	Range          string
	DateColumn     int
	FilterGroups   []analysis.FilterGroup
	AnalysisColumn *int
	ExtraColumn    *int
	LastRun        *time.Time
}

// ErrNotFound is returned when a profile id has no record.
var ErrNotFound = errors.New("profile not found")

// CreateProfile stores a new profile, assigning an id when none is set.
func (s *Store) CreateProfile(ctx context.Context, p Profile) (Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	groups, err := marshalFilterGroups(p.FilterGroups)
	if err != nil {
		return Profile{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, name, spreadsheet_id, sheet_range, date_column, filter_groups, analysis_column, extra_column, last_run)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.SpreadsheetID, p.Range, p.DateColumn, groups,
		nullableInt(p.AnalysisColumn), nullableInt(p.ExtraColumn), nullableTime(p.LastRun))
	if err != nil {
		return Profile{}, fmt.Errorf("failed to insert profile: %w", err)
	}
	return p, nil
}

// GetProfile loads one profile by id.
func (s *Store) GetProfile(ctx context.Context, id string) (Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, spreadsheet_id, sheet_range, date_column, filter_groups, analysis_column, extra_column, last_run
		 FROM profiles WHERE id = ?`, id)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return p, err
}

// ListProfiles returns every tracked profile, oldest-created rows first by
// rowid order.
func (s *Store) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, spreadsheet_id, sheet_range, date_column, filter_groups, analysis_column, extra_column, last_run
		 FROM profiles ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// UpdateLastRun records when a profile was last analyzed.
func (s *Store) UpdateLastRun(ctx context.Context, id string, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET last_run = ? WHERE id = ?`, t.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update last run: %w", err)
	}
	return nil
}

// DeleteProfile removes one profile by id.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(r rowScanner) (Profile, error) {
	var (
		p           Profile
		groups      sql.NullString
		analysisCol sql.NullInt64
		extra       sql.NullInt64
		lastRun     sql.NullString
	)
	err := r.Scan(&p.ID, &p.Name, &p.SpreadsheetID, &p.Range, &p.DateColumn, &groups, &analysisCol, &extra, &lastRun)
	if err != nil {
		return Profile{}, err
	}

	if groups.Valid && groups.String != "" {
		if err := json.Unmarshal([]byte(groups.String), &p.FilterGroups); err != nil {
			return Profile{}, fmt.Errorf("profile %s has invalid filter groups: %w", p.ID, err)
		}
	}
	if analysisCol.Valid {
		v := int(analysisCol.Int64)
		p.AnalysisColumn = &v
	}
	if extra.Valid {
		v := int(extra.Int64)
		p.ExtraColumn = &v
	}
	if lastRun.Valid && lastRun.String != "" {
		t, err := time.Parse(time.RFC3339, lastRun.String)
		if err != nil {
			return Profile{}, fmt.Errorf("profile %s has invalid last run timestamp: %w", p.ID, err)
		}
		p.LastRun = &t
	}
	return p, nil
}

func marshalFilterGroups(groups []analysis.FilterGroup) (string, error) {
	if len(groups) == 0 {
		return "", nil
	}
	data, err := json.Marshal(groups)
	if err != nil {
		return "", fmt.Errorf("failed to marshal filter groups: %w", err)
	}
	return string(data), nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
