package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/starford/raido/internal/cache"
	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/launcher"
	"github.com/starford/raido/internal/matcher"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/usage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeScanner struct {
	apps map[string]models.AppEntry
}

func (f *fakeScanner) Scan() map[string]models.AppEntry { return f.apps }

type fakeExecutor struct {
	launched []string
	err      error
}

func (f *fakeExecutor) Execute(name string, entry models.AppEntry) error {
	if f.err != nil {
		return f.err
	}
	f.launched = append(f.launched, name)
	return nil
}

func (f *fakeExecutor) IsRunning(name string) *bool {
	r := false
	return &r
}

// testEnv builds a service on fake scanner/executor and mounts the router.
// authToken == "" means auth disabled.
func testEnv(t *testing.T, authToken string) (*fakeExecutor, http.Handler) {
	t.Helper()
	dir := t.TempDir()

	sc := &fakeScanner{apps: map[string]models.AppEntry{
		"Safari":        {Name: "Safari", Path: "/Applications/Safari.app", Platform: models.PlatformMacOS, Source: "spotlight"},
		"Google Chrome": {Name: "Google Chrome", Path: "/Applications/Google Chrome.app", Platform: models.PlatformMacOS, Source: "spotlight"},
	}}
	store := cache.New(filepath.Join(dir, "apps_cache.json"), 24, false, sc, testLogger())
	tracker := usage.New(filepath.Join(dir, "app_usage.json"), true, true, testLogger())
	m := matcher.New(true, true, 3, 0.7, nil, testLogger())
	exec := &fakeExecutor{}

	jr, err := journal.Open(filepath.Join(dir, "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { jr.Close() })

	svc := launcher.New(store, tracker, m, exec, sc, jr, testLogger())
	router := NewRouter(svc, authToken != "", authToken)
	return exec, router
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListApps(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/apps", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res launcher.ListResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.TotalCount != 2 {
		t.Errorf("total = %d, want 2", res.TotalCount)
	}
	if res.Apps[0].Name != "Google Chrome" {
		t.Errorf("default sort = %q, want name order", res.Apps[0].Name)
	}
}

func TestListAppsLimit(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/apps?limit=1", nil)
	var res launcher.ListResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.ReturnedCount != 1 || res.TotalCount != 2 {
		t.Errorf("limit not applied: %+v", res)
	}
}

func TestSearchApps(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/apps/search?q=%E6%89%93%E5%BC%80%E8%B0%B7%E6%AD%8C%E6%B5%8F%E8%A7%88%E5%99%A8", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res launcher.SearchResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.BestMatch != "Google Chrome" {
		t.Errorf("best match = %q", res.BestMatch)
	}
}

func TestSearchAppsMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")
	w := doJSON(t, router, http.MethodGet, "/apps/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestOpenApp(t *testing.T) {
	exec, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/apps/open", map[string]string{"app_name": "Safari"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res launcher.OpenResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.AppName != "Safari" {
		t.Errorf("result = %+v", res)
	}
	if len(exec.launched) != 1 {
		t.Errorf("launched = %v", exec.launched)
	}
}

func TestOpenAppNotFound(t *testing.T) {
	exec, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/apps/open", map[string]string{"app_name": "zzzzzz"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if len(exec.launched) != 0 {
		t.Error("nothing must be launched")
	}
}

func TestOpenAppBadBody(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/apps/open", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/apps/open", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty app_name status = %d, want 400", w.Code)
	}
}

func TestReloadApps(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/apps/reload", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res launcher.ReloadResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.AppCount != 2 {
		t.Errorf("app count = %d, want 2", res.AppCount)
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	doJSON(t, router, http.MethodPost, "/apps/open", map[string]string{"app_name": "Safari"})

	w := doJSON(t, router, http.MethodGet, "/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var st launcher.Status
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if !st.Initialized || st.AppCount != 2 {
		t.Errorf("status = %+v", st)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	doJSON(t, router, http.MethodPost, "/apps/open", map[string]string{"app_name": "Safari"})

	w := doJSON(t, router, http.MethodGet, "/history?limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res HistoryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) != 1 || res.Entries[0].AppName != "Safari" {
		t.Errorf("entries = %+v", res.Entries)
	}
}

func TestAuthModes(t *testing.T) {
	_, router := testEnv(t, "secret")

	// No token: rejected.
	w := doJSON(t, router, http.MethodGet, "/apps", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}

	// Wrong token: rejected.
	req := httptest.NewRequest(http.MethodGet, "/apps", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}

	// Valid token: accepted.
	req = httptest.NewRequest(http.MethodGet, "/apps", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
