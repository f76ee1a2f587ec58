package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"sheetwatch/internal/analysis"
	"sheetwatch/internal/config"
	"sheetwatch/internal/retry"
	"sheetwatch/internal/sheets"
	"sheetwatch/internal/store"
)

// Batch sizes bound the concurrent outstanding requests against the Sheets
// API; the runner waits for a full batch before starting the next.
const (
	analysisBatchSize = 3
	importBatchSize   = 5
)

const dayFormat = "2006-01-02"

// Fetcher is the spreadsheet-fetch collaborator. *sheets.Client satisfies it.
type Fetcher interface {
	ReadSheet(ctx context.Context, spreadsheetID, range_ string) ([][]interface{}, error)
}

// Options carry the per-run comparison settings.
type Options struct {
	// CustomDate selects an exact comparison day (YYYY-MM-DD) instead of
	// the previous calendar day. Empty means yesterday.
	CustomDate string
	// CompareFallback falls back to the previous day when CustomDate has
	// no matching entry.
	CompareFallback bool
	WindowDays      int
}

// Runner drives batched analysis refreshes and bulk profile imports.
type Runner struct {
	fetcher    Fetcher
	store      *store.Store
	opts       Options
	resilience config.ResilienceConfig
	now        func() time.Time
}

func New(fetcher Fetcher, st *store.Store, opts Options) *Runner {
	if opts.WindowDays <= 0 {
		opts.WindowDays = analysis.DefaultWindowDays
	}
	return &Runner{
		fetcher:    fetcher,
		store:      st,
		opts:       opts,
		resilience: config.DefaultResilienceConfig,
		now:        time.Now,
	}
}

// ProfileResult is one profile's outcome for a refresh run. A failed fetch
// carries only the sentinel; successful fetches carry the full analytics.
type ProfileResult struct {
	Profile     store.Profile
	Fetch       analysis.FetchResult
	Counts      []analysis.EntryCount
	Delta       *analysis.DeltaChange
	Change      *analysis.ColumnChange
	ExtraChange *analysis.ColumnChange
	Comparisons []analysis.ComparisonResult
	Current     []string
}

// RefreshAll analyzes every tracked profile in batches, merges each
// successful profile's results into the persisted snapshot, and returns the
// per-profile results plus the number of failed profiles. One profile's
// failure never aborts its siblings.
func (r *Runner) RefreshAll(ctx context.Context) ([]ProfileResult, int, error) {
	profiles, err := r.store.ListProfiles(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load profiles: %w", err)
	}

	log.Debug().Int("profiles", len(profiles)).Msg("Starting analysis refresh")

	results := make([]ProfileResult, len(profiles))
	for start := 0; start < len(profiles); start += analysisBatchSize {
		end := min(start+analysisBatchSize, len(profiles))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = r.analyzeProfile(ctx, profiles[i])
				return nil
			})
		}
		g.Wait()

		// Merges are applied sequentially after the batch barrier so no
		// two read-merge-write cycles interleave.
		for i := start; i < end; i++ {
			r.persistResult(ctx, &results[i])
		}
	}

	failures := 0
	for _, res := range results {
		if res.Fetch.Failed {
			failures++
		}
	}

	log.Info().
		Int("profiles", len(profiles)).
		Int("failures", failures).
		Msg("Analysis refresh complete")

	return results, failures, nil
}

func (r *Runner) analyzeProfile(ctx context.Context, p store.Profile) ProfileResult {
	res := ProfileResult{Profile: p}

	// Config problems are rejected before any fetch is attempted.
	if p.SpreadsheetID == "" {
		res.Fetch = analysis.Fail(fmt.Errorf("profile %q is missing a spreadsheet id", p.Name))
		return res
	}
	rng, err := sheets.ParseRange(p.Range)
	if err != nil {
		res.Fetch = analysis.Fail(err)
		return res
	}

	values, err := retry.WithRetry(ctx, r.resilience.SheetRead, func(ctx context.Context) ([][]interface{}, error) {
		return r.fetcher.ReadSheet(ctx, p.SpreadsheetID, rng.ReadRange())
	})
	if err != nil {
		log.Warn().Err(err).Str("profile", p.Name).Msg("Fetch failed, marking profile")
		res.Fetch = analysis.Fail(err)
		return res
	}

	rows := sheets.ToStringRows(values)
	parsed := analysis.ParseRows(rows, p.DateColumn-1, p.FilterGroups)
	res.Fetch = analysis.Ok(parsed)

	now := r.now()
	today := now.Format(dayFormat)
	compareDay := r.opts.CustomDate
	if compareDay == "" {
		compareDay = now.AddDate(0, 0, -1).Format(dayFormat)
	}

	res.Counts = analysis.CountPerDay(parsed, p.Name, r.opts.WindowDays, now)
	res.Delta = analysis.Delta(res.Counts, p.Name, r.opts.CustomDate, r.opts.CompareFallback)
	res.Comparisons = analysis.CompareAdjacentRows(parsed, p.Name)

	if p.AnalysisColumn != nil {
		res.Change = analysis.ReconcileColumn(parsed, *p.AnalysisColumn, compareDay, today)
		res.Current = analysis.DayEntries(parsed, *p.AnalysisColumn, today)
	}
	if p.ExtraColumn != nil {
		res.ExtraChange = analysis.ReconcileColumn(parsed, *p.ExtraColumn, compareDay, today)
	}

	log.Debug().
		Str("profile", p.Name).
		Int("rows", len(parsed)).
		Int("comparisons", len(res.Comparisons)).
		Msg("Analyzed profile")

	return res
}

// persistResult folds one successful result into the stored snapshot and
// stamps the profile's last run.
func (r *Runner) persistResult(ctx context.Context, res *ProfileResult) {
	if res.Fetch.Failed {
		return
	}

	snap, err := r.store.LoadSnapshot(ctx)
	if err != nil {
		log.Error().Err(err).Str("profile", res.Profile.Name).Msg("Failed to load snapshot, skipping merge")
		return
	}

	merged := analysis.MergeSnapshot(snap, res.Profile.Name, res.Counts, res.Comparisons)
	if err := r.store.SaveSnapshot(ctx, merged); err != nil {
		log.Error().Err(err).Str("profile", res.Profile.Name).Msg("Failed to save snapshot")
		return
	}

	if err := r.store.UpdateLastRun(ctx, res.Profile.ID, r.now()); err != nil {
		log.Warn().Err(err).Str("profile", res.Profile.Name).Msg("Failed to update last run")
	}
}
