package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"sheetwatch/internal/app"
	"sheetwatch/internal/export"
	"sheetwatch/internal/notifications"
	"sheetwatch/internal/runner"
)

func main() {
	log.Debug().Msg("Starting application")
	app.SetupEnvironment()

	ctx := context.Background()
	sheetsClient, st := app.InitializeClients(ctx)
	defer st.Close()

	notifyClient := app.InitializeNotificationClient()

	opts := runner.Options{
		CustomDate:      os.Getenv("COMPARE_DATE"),
		CompareFallback: app.GetEnvWithDefault("COMPARE_FALLBACK", "true") == "true",
	}
	run := runner.New(sheetsClient, st, opts)

	if importFile := os.Getenv("IMPORT_FILE"); importFile != "" {
		importProfiles(ctx, run, importFile)
	}

	interval := refreshInterval()
	log.Info().
		Dur("interval", interval).
		Msg("Starting sheetwatch. Running immediately and then on the interval...")

	refresh(ctx, run, notifyClient, opts.CustomDate)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		refresh(ctx, run, notifyClient, opts.CustomDate)
	}
}

func refreshInterval() time.Duration {
	raw := app.GetEnvWithDefault("REFRESH_INTERVAL", "10m")
	interval, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn().Str("value", raw).Msg("Invalid REFRESH_INTERVAL, using 10m")
		return 10 * time.Minute
	}
	return interval
}

func importProfiles(ctx context.Context, run *runner.Runner, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to read import file")
	}

	var specs []runner.ProfileSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to decode import file")
	}

	results, failures := run.ImportProfiles(ctx, specs)
	for _, res := range results {
		if res.Err != nil {
			log.Warn().Err(res.Err).Str("name", res.Spec.Name).Msg("Profile import failed")
		}
	}
	log.Info().
		Int("imported", len(results)-failures).
		Int("failed", failures).
		Msg("Profile import finished")
}

func refresh(ctx context.Context, run *runner.Runner, notifyClient *notifications.Client, compareDate string) {
	results, failures, err := run.RefreshAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Refresh failed")
		return
	}

	if failures > 0 {
		var failed []string
		for _, res := range results {
			if res.Fetch.Failed {
				failed = append(failed, res.Profile.Name)
			}
		}
		notifyClient.NotifyFetchFailures(ctx, failed)
	}

	if exportDir := os.Getenv("EXPORT_DIR"); exportDir != "" {
		writeExports(results, compareDate, exportDir)
	}
}

func writeExports(results []runner.ProfileResult, compareDate, dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("Failed to create export directory")
		return
	}

	now := time.Now()
	for _, res := range results {
		if res.Profile.AnalysisColumn == nil && !res.Fetch.Failed {
			continue
		}

		report := export.Report{
			ProfileName: res.Profile.Name,
			Current:     res.Current,
			Change:      res.Change,
			Failed:      res.Fetch.Failed,
		}
		text := export.Render(report, ',')
		name := export.Filename(res.Profile.Name, compareDate, now, "csv")

		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			log.Error().Err(err).Str("file", path).Msg("Failed to write export")
			continue
		}
		log.Debug().Str("file", path).Msg("Wrote export")
	}
}
