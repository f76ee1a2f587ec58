package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"sheetwatch/internal/retry"
	"sheetwatch/internal/store"
)

var testTime = time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	data  map[string][][]interface{}
	errs  map[string]error
}

func (f *fakeFetcher) ReadSheet(ctx context.Context, spreadsheetID, range_ string) ([][]interface{}, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if err, ok := f.errs[spreadsheetID]; ok {
		return nil, err
	}
	return f.data[spreadsheetID], nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestRunner(t *testing.T, fetcher Fetcher, opts Options) (*Runner, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	r := New(fetcher, st, opts)
	r.now = func() time.Time { return testTime }
	// Keep failing fetches fast in tests.
	fast := retry.Config{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Timeout: time.Second}
	r.resilience.SheetRead = fast
	r.resilience.ImportProbe = fast
	return r, st
}

func createProfile(t *testing.T, st *store.Store, name, sheetID string, analysisColumn *int) store.Profile {
	t.Helper()
	p, err := st.CreateProfile(context.Background(), store.Profile{
		Name:           name,
		SpreadsheetID:  sheetID,
		Range:          "Data!A1:D100",
		DateColumn:     1,
		AnalysisColumn: analysisColumn,
	})
	if err != nil {
		t.Fatalf("Failed to create profile %s: %v", name, err)
	}
	return p
}

func TestRefreshAllIsolatesFailures(t *testing.T) {
	fetcher := &fakeFetcher{
		data: map[string][][]interface{}{
			"ok-1": {{"2024-01-07 09:00", "a"}},
			"ok-2": {{"2024-01-07 10:00", "b"}},
			"ok-3": {{"2024-01-06", "c"}},
		},
		errs: map[string]error{
			"broken": errors.New("quota exceeded"),
		},
	}

	r, st := newTestRunner(t, fetcher, Options{CompareFallback: true})
	ctx := context.Background()
	createProfile(t, st, "one", "ok-1", nil)
	createProfile(t, st, "two", "broken", nil)
	createProfile(t, st, "three", "ok-2", nil)
	createProfile(t, st, "four", "ok-3", nil)

	results, failures, err := r.RefreshAll(ctx)
	if err != nil {
		t.Fatalf("RefreshAll failed: %v", err)
	}
	if failures != 1 {
		t.Errorf("Expected 1 failure, got %d", failures)
	}
	if len(results) != 4 {
		t.Fatalf("Expected 4 results, got %d", len(results))
	}

	if !results[1].Fetch.Failed || results[1].Fetch.Err == nil {
		t.Error("Expected the broken profile to carry a failure sentinel")
	}
	for _, i := range []int{0, 2, 3} {
		if results[i].Fetch.Failed {
			t.Errorf("Profile %s must not be aborted by a sibling failure", results[i].Profile.Name)
		}
		if len(results[i].Counts) != 7 {
			t.Errorf("Profile %s: expected 7 daily counts, got %d", results[i].Profile.Name, len(results[i].Counts))
		}
	}

	// Snapshot holds only successful profiles.
	snap, err := st.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	sheetNames := map[string]bool{}
	for _, c := range snap.EntryCounts {
		sheetNames[c.SheetName] = true
	}
	if sheetNames["two"] {
		t.Error("Failed profile must not contribute to the snapshot")
	}
	for _, name := range []string{"one", "three", "four"} {
		if !sheetNames[name] {
			t.Errorf("Expected snapshot entries for %s", name)
		}
	}

	// LastRun is stamped only on successes.
	profiles, err := st.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("Failed to list profiles: %v", err)
	}
	for _, p := range profiles {
		if p.Name == "two" {
			if p.LastRun != nil {
				t.Error("Failed profile must not get a last run stamp")
			}
		} else if p.LastRun == nil {
			t.Errorf("Profile %s should have a last run stamp", p.Name)
		}
	}
}

func TestRefreshAllRepeatedRunsDoNotGrowSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{
		data: map[string][][]interface{}{
			"id": {{"2024-01-07", "a"}},
		},
	}

	r, st := newTestRunner(t, fetcher, Options{CompareFallback: true})
	ctx := context.Background()
	createProfile(t, st, "p", "id", nil)

	if _, _, err := r.RefreshAll(ctx); err != nil {
		t.Fatalf("First refresh failed: %v", err)
	}
	first, err := st.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}

	if _, _, err := r.RefreshAll(ctx); err != nil {
		t.Fatalf("Second refresh failed: %v", err)
	}
	second, err := st.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("Failed to reload snapshot: %v", err)
	}

	if len(second.EntryCounts) != len(first.EntryCounts) {
		t.Errorf("Repeated refresh must replace, not append: %d vs %d",
			len(first.EntryCounts), len(second.EntryCounts))
	}
}

func TestAnalyzeProfileRejectsConfigBeforeFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	r, st := newTestRunner(t, fetcher, Options{})
	ctx := context.Background()

	p, err := st.CreateProfile(ctx, store.Profile{
		Name: "bad", SpreadsheetID: "id", Range: "no separator", DateColumn: 1,
	})
	if err != nil {
		t.Fatalf("Failed to create profile: %v", err)
	}

	res := r.analyzeProfile(ctx, p)
	if !res.Fetch.Failed {
		t.Error("Expected a config failure sentinel")
	}
	if fetcher.callCount() != 0 {
		t.Errorf("Invalid config must be rejected before any fetch, got %d calls", fetcher.callCount())
	}
}

func TestAnalyzeProfileReconcilesAnalysisColumn(t *testing.T) {
	fetcher := &fakeFetcher{
		data: map[string][][]interface{}{
			"id": {
				{"2024-01-06 09:00", "alice"},
				{"2024-01-07 09:00", "bob"},
			},
		},
	}

	r, st := newTestRunner(t, fetcher, Options{CompareFallback: true})
	col := 1
	p := createProfile(t, st, "p", "id", &col)

	res := r.analyzeProfile(context.Background(), p)
	if res.Fetch.Failed {
		t.Fatalf("Unexpected failure: %v", res.Fetch.Err)
	}
	if res.Change == nil {
		t.Fatal("Expected a column change between yesterday and today")
	}
	if len(res.Change.Added) != 1 || res.Change.Added[0] != "bob" {
		t.Errorf("Expected added [bob], got %v", res.Change.Added)
	}
	if len(res.Change.Removed) != 1 || res.Change.Removed[0] != "alice" {
		t.Errorf("Expected removed [alice], got %v", res.Change.Removed)
	}
	if len(res.Current) != 1 || res.Current[0] != "bob" {
		t.Errorf("Expected current entries [bob], got %v", res.Current)
	}
}

func TestImportProfiles(t *testing.T) {
	fetcher := &fakeFetcher{
		data: map[string][][]interface{}{
			"good": {{"2024-01-07", "a"}},
		},
		errs: map[string]error{
			"unreachable": errors.New("permission denied"),
		},
	}

	r, st := newTestRunner(t, fetcher, Options{})
	ctx := context.Background()

	specs := []ProfileSpec{
		{Name: "valid", SpreadsheetID: "good", Range: "Data!A1:B2", DateColumn: 1},
		{Name: "", SpreadsheetID: "good", Range: "Data!A1:B2", DateColumn: 1},
		{Name: "bad range", SpreadsheetID: "good", Range: "DataA1B2", DateColumn: 1},
		{Name: "bad column", SpreadsheetID: "good", Range: "Data!A1:B2", DateColumn: 0},
		{Name: "no access", SpreadsheetID: "unreachable", Range: "Data!A1:B2", DateColumn: 1},
	}

	results, failures := r.ImportProfiles(ctx, specs)
	if failures != 4 {
		for _, res := range results {
			t.Logf("%s: %v", res.Spec.Name, res.Err)
		}
		t.Errorf("Expected 4 failures, got %d", failures)
	}
	if results[0].Err != nil {
		t.Errorf("Valid spec failed: %v", results[0].Err)
	}
	if results[0].Profile.ID == "" {
		t.Error("Imported profile should have an id")
	}

	profiles, err := st.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("Failed to list profiles: %v", err)
	}
	if len(profiles) != 1 || profiles[0].Name != "valid" {
		t.Errorf("Expected only the valid profile stored, got %+v", profiles)
	}
}

func TestImportProfilesBatches(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string][][]interface{}{}}
	for i := 0; i < 12; i++ {
		fetcher.data[fmt.Sprintf("id-%d", i)] = [][]interface{}{{"2024-01-07", "x"}}
	}

	r, st := newTestRunner(t, fetcher, Options{})
	ctx := context.Background()

	var specs []ProfileSpec
	for i := 0; i < 12; i++ {
		specs = append(specs, ProfileSpec{
			Name:          fmt.Sprintf("profile-%d", i),
			SpreadsheetID: fmt.Sprintf("id-%d", i),
			Range:         "Data!A1:B2",
			DateColumn:    1,
		})
	}

	_, failures := r.ImportProfiles(ctx, specs)
	if failures != 0 {
		t.Errorf("Expected no failures, got %d", failures)
	}

	profiles, err := st.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("Failed to list profiles: %v", err)
	}
	if len(profiles) != 12 {
		t.Errorf("Expected 12 imported profiles, got %d", len(profiles))
	}
}
