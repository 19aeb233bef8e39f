package launcher

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/cache"
	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/matcher"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/usage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeScanner struct {
	apps  map[string]models.AppEntry
	calls int
}

func (f *fakeScanner) Scan() map[string]models.AppEntry {
	f.calls++
	return f.apps
}

type fakeExecutor struct {
	launched []string
	err      error
	running  bool
}

func (f *fakeExecutor) Execute(name string, entry models.AppEntry) error {
	if f.err != nil {
		return f.err
	}
	f.launched = append(f.launched, name)
	return nil
}

func (f *fakeExecutor) IsRunning(name string) *bool {
	r := f.running
	return &r
}

func sampleApps() map[string]models.AppEntry {
	return map[string]models.AppEntry{
		"TextEdit":      {Name: "TextEdit", Path: "/Applications/TextEdit.app", Platform: models.PlatformMacOS, Source: "applications_folder"},
		"Safari":        {Name: "Safari", Path: "/Applications/Safari.app", Platform: models.PlatformMacOS, Source: "spotlight"},
		"Google Chrome": {Name: "Google Chrome", Path: "/Applications/Google Chrome.app", Platform: models.PlatformMacOS, Source: "spotlight"},
	}
}

type fixture struct {
	service *Service
	scanner *fakeScanner
	exec    *fakeExecutor
	tracker *usage.Tracker
	store   *cache.Store
}

func testFixture(t *testing.T, apps map[string]models.AppEntry) *fixture {
	t.Helper()
	dir := t.TempDir()
	sc := &fakeScanner{apps: apps}
	store := cache.New(filepath.Join(dir, "apps_cache.json"), 24, false, sc, testLogger())
	tracker := usage.New(filepath.Join(dir, "app_usage.json"), true, true, testLogger())
	m := matcher.New(true, true, 3, 0.7, nil, testLogger())
	exec := &fakeExecutor{}

	jr, err := journal.Open(filepath.Join(dir, "journal.db"))
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	t.Cleanup(func() { jr.Close() })

	return &fixture{
		service: New(store, tracker, m, exec, sc, jr, testLogger()),
		scanner: sc,
		exec:    exec,
		tracker: tracker,
		store:   store,
	}
}

func TestInitializeFromScanThenCache(t *testing.T) {
	fx := testFixture(t, sampleApps())

	got := fx.service.Initialize()
	if !got.Success || got.FromCache {
		t.Fatalf("first init = %+v, want success from scan", got)
	}
	if got.AppCount != 3 {
		t.Errorf("app count = %d, want 3", got.AppCount)
	}

	// A second service on the same cache file initializes from cache
	// without scanning.
	sc2 := &fakeScanner{}
	store2 := cache.New(fx.store.Path(), 24, false, sc2, testLogger())
	svc2 := New(store2, fx.tracker, matcher.New(true, true, 3, 0.7, nil, testLogger()), fx.exec, sc2, nil, testLogger())

	got = svc2.Initialize()
	if !got.Success || !got.FromCache {
		t.Fatalf("second init = %+v, want success from cache", got)
	}
	if sc2.calls != 0 {
		t.Errorf("scanner called %d times, want 0 for a warm cache", sc2.calls)
	}
}

func TestInitializeFailsOnEmptyWorld(t *testing.T) {
	fx := testFixture(t, map[string]models.AppEntry{})
	got := fx.service.Initialize()
	if got.Success {
		t.Errorf("init = %+v, want failure when nothing scans", got)
	}
}

func TestOpenVerbatimHit(t *testing.T) {
	fx := testFixture(t, sampleApps())

	got := fx.service.Open("TextEdit")
	if !got.Success {
		t.Fatalf("Open failed: %s", got.Message)
	}
	if got.AppName != "TextEdit" || got.AppPath != "/Applications/TextEdit.app" {
		t.Errorf("result = %+v", got)
	}
	if len(fx.exec.launched) != 1 || fx.exec.launched[0] != "TextEdit" {
		t.Errorf("launched = %v", fx.exec.launched)
	}
	if rec := fx.tracker.Get("TextEdit"); rec == nil || rec.Count != 1 {
		t.Errorf("usage not recorded: %+v", rec)
	}
}

func TestOpenResolvesThroughMatcher(t *testing.T) {
	fx := testFixture(t, sampleApps())

	got := fx.service.Open("textedit")
	if !got.Success {
		t.Fatalf("Open failed: %s", got.Message)
	}
	if got.AppName != "TextEdit" {
		t.Errorf("resolved = %q, want TextEdit", got.AppName)
	}
	if len(fx.exec.launched) != 1 || fx.exec.launched[0] != "TextEdit" {
		t.Errorf("launched = %v", fx.exec.launched)
	}
}

func TestOpenNotFound(t *testing.T) {
	fx := testFixture(t, sampleApps())

	got := fx.service.Open("zzzzzz")
	if got.Success {
		t.Fatal("Open must fail for an unmatchable name")
	}
	if !strings.Contains(got.Message, "not found") {
		t.Errorf("message = %q", got.Message)
	}
	if len(fx.exec.launched) != 0 {
		t.Error("nothing must be launched")
	}
}

func TestOpenEmptyName(t *testing.T) {
	fx := testFixture(t, sampleApps())
	if got := fx.service.Open(""); got.Success {
		t.Error("Open must fail for an empty name")
	}
}

func TestOpenSecurityRejectionSkipsUsage(t *testing.T) {
	fx := testFixture(t, sampleApps())
	fx.exec.err = apperr.ErrSecurityPolicy

	got := fx.service.Open("TextEdit")
	if got.Success {
		t.Fatal("Open must fail when the executor refuses")
	}
	if !strings.Contains(got.Message, "security") {
		t.Errorf("message = %q", got.Message)
	}
	if fx.tracker.Get("TextEdit") != nil {
		t.Error("usage must not be recorded for a refused launch")
	}
}

func TestOpenWritesJournal(t *testing.T) {
	fx := testFixture(t, sampleApps())
	fx.service.Open("TextEdit")
	fx.service.Open("zzzzzz")

	rows, err := fx.service.History(10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("journal rows = %d, want 2", len(rows))
	}
	// Newest first.
	if rows[0].Success || rows[0].Error == "" {
		t.Errorf("failed attempt not journaled: %+v", rows[0])
	}
	if !rows[1].Success || rows[1].AppName != "TextEdit" {
		t.Errorf("successful attempt not journaled: %+v", rows[1])
	}
}

func TestHistoryWithoutJournal(t *testing.T) {
	fx := testFixture(t, sampleApps())
	svc := New(fx.store, fx.tracker, matcher.New(true, true, 3, 0.7, nil, testLogger()), fx.exec, fx.scanner, nil, testLogger())
	if _, err := svc.History(10); err == nil {
		t.Error("History must fail when no journal is configured")
	}
}

func TestSearch(t *testing.T) {
	fx := testFixture(t, sampleApps())
	fx.exec.running = true

	got := fx.service.Search("打开谷歌浏览器", 5)
	if !got.Success {
		t.Fatalf("Search failed: %s", got.Message)
	}
	if got.BestMatch != "Google Chrome" {
		t.Errorf("best match = %q", got.BestMatch)
	}
	if len(got.Results) == 0 || got.Results[0].Name != "Google Chrome" {
		t.Fatalf("results = %+v", got.Results)
	}
	if got.Results[0].IsRunning == nil || !*got.Results[0].IsRunning {
		t.Error("results must carry is_running")
	}
	if got.Results[0].Path != "/Applications/Google Chrome.app" {
		t.Errorf("path = %q", got.Results[0].Path)
	}
}

func TestSearchPrefersFrequentlyUsed(t *testing.T) {
	fx := testFixture(t, map[string]models.AppEntry{
		"Notes":  {Name: "Notes", Path: "/Applications/Notes.app", Platform: models.PlatformMacOS, Source: "spotlight"},
		"Notion": {Name: "Notion", Path: "/Applications/Notion.app", Platform: models.PlatformMacOS, Source: "spotlight"},
	})
	fx.service.Initialize()

	// Both names match "not" with equal confidence; launch history breaks
	// the tie.
	fx.tracker.Record("Notion")
	fx.tracker.Record("Notion")

	got := fx.service.Search("not", 5)
	if !got.Success || len(got.Results) != 2 {
		t.Fatalf("search = %+v", got)
	}
	if got.BestMatch != "Notion" || got.Results[0].Name != "Notion" {
		t.Errorf("best match = %q, results = %+v", got.BestMatch, got.Results)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	fx := testFixture(t, sampleApps())
	if got := fx.service.Search("", 5); got.Success {
		t.Error("Search must fail for an empty query")
	}
}

func TestSearchCapsResults(t *testing.T) {
	fx := testFixture(t, sampleApps())
	got := fx.service.Search("a", 1)
	if len(got.Results) > 1 {
		t.Errorf("results = %d, want at most 1", len(got.Results))
	}
}

func TestListSorting(t *testing.T) {
	fx := testFixture(t, sampleApps())
	fx.service.Open("Safari")
	fx.service.Open("Safari")
	fx.service.Open("TextEdit")

	byName := fx.service.List("name", 0)
	if !byName.Success || byName.TotalCount != 3 {
		t.Fatalf("list = %+v", byName)
	}
	if byName.Apps[0].Name != "Google Chrome" {
		t.Errorf("name sort starts with %q", byName.Apps[0].Name)
	}

	byUsage := fx.service.List("usage", 0)
	if byUsage.Apps[0].Name != "Safari" || byUsage.Apps[1].Name != "TextEdit" {
		t.Errorf("usage sort = %q, %q", byUsage.Apps[0].Name, byUsage.Apps[1].Name)
	}

	limited := fx.service.List("name", 2)
	if limited.ReturnedCount != 2 || limited.TotalCount != 3 {
		t.Errorf("limit not applied: %+v", limited)
	}
}

func TestListAutoInitializes(t *testing.T) {
	fx := testFixture(t, sampleApps())
	got := fx.service.List("name", 0)
	if !got.Success || got.TotalCount != 3 {
		t.Errorf("list must initialize on first use: %+v", got)
	}
}

func TestReload(t *testing.T) {
	fx := testFixture(t, sampleApps())
	fx.service.Initialize()

	fx.scanner.apps = map[string]models.AppEntry{
		"Fresh": {Name: "Fresh", Path: "/Applications/Fresh.app", Platform: models.PlatformMacOS, Source: "spotlight"},
	}
	got := fx.service.Reload()
	if !got.Success || got.AppCount != 1 {
		t.Fatalf("reload = %+v", got)
	}

	list := fx.service.List("name", 0)
	if list.TotalCount != 1 || list.Apps[0].Name != "Fresh" {
		t.Errorf("index after reload = %+v", list.Apps)
	}
}

func TestStatus(t *testing.T) {
	fx := testFixture(t, sampleApps())

	st := fx.service.Status()
	if st.Initialized {
		t.Error("status must report uninitialized before first use")
	}

	fx.service.Initialize()
	fx.service.Open("Safari")

	st = fx.service.Status()
	if !st.Initialized || st.AppCount != 3 {
		t.Errorf("status = %+v", st)
	}
	if !st.CacheExists {
		t.Error("cache file must exist after initialization")
	}
	if !st.UsageTracking {
		t.Error("usage tracking flag must be reported")
	}
	if len(st.MostUsed) == 0 || st.MostUsed[0] != "Safari" {
		t.Errorf("most used = %v", st.MostUsed)
	}
}

// Exercises the watcher's refresh path against concurrent reads; run with
// the race detector to catch unsynchronized cache access.
func TestRefreshCacheConcurrentWithReads(t *testing.T) {
	fx := testFixture(t, sampleApps())
	fx.service.Initialize()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if _, ok := fx.service.RefreshCache(); !ok {
					t.Error("refresh failed")
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				fx.service.List("name", 0)
				fx.service.Search("safari", 3)
			}
		}()
	}
	wg.Wait()

	if got := fx.service.List("name", 0); got.TotalCount != 3 {
		t.Errorf("index size after refreshes = %d, want 3", got.TotalCount)
	}
}

func TestAddAliasFeedsSearch(t *testing.T) {
	fx := testFixture(t, sampleApps())
	if !fx.service.AddAlias("TextEdit", "文本编辑") {
		t.Fatal("AddAlias failed")
	}
	got := fx.service.Search("文本编辑", 5)
	if got.BestMatch != "TextEdit" {
		t.Errorf("best match = %q, want TextEdit via custom alias", got.BestMatch)
	}
}
