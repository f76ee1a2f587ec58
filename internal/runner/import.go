package runner

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"sheetwatch/internal/analysis"
	"sheetwatch/internal/retry"
	"sheetwatch/internal/sheets"
	"sheetwatch/internal/store"
)

// ProfileSpec is one profile to import, as decoded from an import file.
type ProfileSpec struct {
	Name           string                 `json:"name"`
	SpreadsheetID  string                 `json:"spreadsheetId"`
	Range          string                 `json:"range"`
	DateColumn     int                    `json:"dateColumn"`
	FilterGroups   []analysis.FilterGroup `json:"filterGroups,omitempty"`
	AnalysisColumn *int                   `json:"analysisColumn,omitempty"`
	ExtraColumn    *int                   `json:"extraColumn,omitempty"`
}

// ImportResult reports one spec's outcome.
type ImportResult struct {
	Spec    ProfileSpec
	Profile store.Profile
	Err     error
}

// ImportProfiles validates and stores profile specs in batches. Each spec is
// probed with one sheet read before it is accepted; a failing spec is
// reported without affecting the rest. Returns the per-spec results plus the
// failure count.
func (r *Runner) ImportProfiles(ctx context.Context, specs []ProfileSpec) ([]ImportResult, int) {
	log.Debug().Int("specs", len(specs)).Msg("Starting bulk import")

	results := make([]ImportResult, len(specs))
	for start := 0; start < len(specs); start += importBatchSize {
		end := min(start+importBatchSize, len(specs))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = r.importOne(ctx, specs[i])
				return nil
			})
		}
		g.Wait()

		for i := start; i < end; i++ {
			if results[i].Err != nil {
				continue
			}
			p, err := r.store.CreateProfile(ctx, results[i].Profile)
			if err != nil {
				results[i].Err = err
				continue
			}
			results[i].Profile = p
			log.Info().
				Str("profile", p.Name).
				Str("id", p.ID).
				Msg("Imported profile")
		}
	}

	failures := 0
	for _, res := range results {
		if res.Err != nil {
			failures++
		}
	}

	log.Info().
		Int("specs", len(specs)).
		Int("failures", failures).
		Msg("Bulk import complete")

	return results, failures
}

func (r *Runner) importOne(ctx context.Context, spec ProfileSpec) ImportResult {
	res := ImportResult{Spec: spec}

	if spec.Name == "" {
		res.Err = fmt.Errorf("import spec is missing a name")
		return res
	}
	if spec.SpreadsheetID == "" {
		res.Err = fmt.Errorf("import spec %q is missing a spreadsheet id", spec.Name)
		return res
	}
	if spec.DateColumn < 1 {
		res.Err = fmt.Errorf("import spec %q has an invalid date column %d", spec.Name, spec.DateColumn)
		return res
	}
	rng, err := sheets.ParseRange(spec.Range)
	if err != nil {
		res.Err = err
		return res
	}

	// One probing read confirms the spreadsheet is reachable before the
	// profile is stored.
	_, err = retry.WithRetry(ctx, r.resilience.ImportProbe, func(ctx context.Context) ([][]interface{}, error) {
		return r.fetcher.ReadSheet(ctx, spec.SpreadsheetID, rng.String())
	})
	if err != nil {
		res.Err = fmt.Errorf("probe read for %q failed: %w", spec.Name, err)
		return res
	}

	res.Profile = store.Profile{
		Name:           spec.Name,
		SpreadsheetID:  spec.SpreadsheetID,
		Range:          spec.Range,
		DateColumn:     spec.DateColumn,
		FilterGroups:   spec.FilterGroups,
		AnalysisColumn: spec.AnalysisColumn,
		ExtraColumn:    spec.ExtraColumn,
	}
	return res
}
