// Package launcher composes the scanner, cache, matcher, usage tracker,
// executor, and journal into the operations exposed over MCP and HTTP.
package launcher

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/starford/raido/internal/cache"
	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/matcher"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/usage"
)

// Scanner is the raw-scan fallback used when both the cache load and the
// cache update come up empty.
type Scanner interface {
	Scan() map[string]models.AppEntry
}

// Executor launches applications and probes the process table.
type Executor interface {
	Execute(name string, entry models.AppEntry) error
	IsRunning(name string) *bool
}

// Service serializes all public operations with one mutex; the components
// underneath are not safe for concurrent use but the HTTP and MCP
// surfaces above are concurrent.
type Service struct {
	mu sync.Mutex

	cache    *cache.Store
	tracker  *usage.Tracker
	matcher  *matcher.Matcher
	executor Executor
	scanner  Scanner
	journal  *journal.DB
	logger   *slog.Logger

	initialized bool
	// fallback holds the index when only the raw scan produced apps and
	// the cache could not be written.
	fallback map[string]models.AppEntry
}

// New wires a service. journal may be nil; history operations then report
// the journal as unavailable.
func New(store *cache.Store, tracker *usage.Tracker, m *matcher.Matcher, exec Executor, sc Scanner, jr *journal.DB, logger *slog.Logger) *Service {
	return &Service{
		cache:    store,
		tracker:  tracker,
		matcher:  m,
		executor: exec,
		scanner:  sc,
		journal:  jr,
		logger:   logger,
	}
}

// InitResult reports how the index was populated.
type InitResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	AppCount  int    `json:"app_count"`
	FromCache bool   `json:"from_cache"`
}

// AppInfo is one index entry enriched for presentation.
type AppInfo struct {
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	Platform  string   `json:"platform"`
	Source    string   `json:"scanned_from"`
	Aliases   []string `json:"aliases"`
	IsRunning *bool    `json:"is_running"`
}

// ListResult carries a sorted, truncated view of the index.
type ListResult struct {
	Success       bool      `json:"success"`
	Message       string    `json:"message"`
	TotalCount    int       `json:"total_count"`
	ReturnedCount int       `json:"returned_count"`
	Apps          []AppInfo `json:"apps"`
}

// SearchItem is one ranked candidate.
type SearchItem struct {
	Name       string  `json:"name"`
	Path       string  `json:"path"`
	Confidence float64 `json:"confidence"`
	IsRunning  *bool   `json:"is_running"`
}

// SearchResult carries the ranked candidates for a query.
type SearchResult struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Query     string       `json:"query"`
	BestMatch string       `json:"best_match,omitempty"`
	Results   []SearchItem `json:"results"`
}

// OpenResult reports one launch attempt.
type OpenResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	AppName   string `json:"app_name"`
	AppPath   string `json:"app_path,omitempty"`
	IsRunning *bool  `json:"is_running,omitempty"`
}

// ReloadResult reports a forced rescan.
type ReloadResult struct {
	Success  bool    `json:"success"`
	Message  string  `json:"message"`
	AppCount int     `json:"app_count"`
	Elapsed  float64 `json:"elapsed_seconds"`
}

// Status is a point-in-time snapshot of the service.
type Status struct {
	Initialized   bool     `json:"initialized"`
	AppCount      int      `json:"app_count"`
	CacheFile     string   `json:"cache_file"`
	CacheExists   bool     `json:"cache_exists"`
	UsageTracking bool     `json:"usage_tracking_enabled"`
	MostUsed      []string `json:"most_used_apps"`
	RecentlyUsed  []string `json:"recently_used_apps"`
}

// Initialize populates the index: cached copy first, then a cache-backed
// scan, then a raw scan that bypasses the cache. The first source
// producing a non-empty index wins.
func (s *Service) Initialize() InitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initializeLocked()
}

func (s *Service) initializeLocked() InitResult {
	start := time.Now()

	if s.cache.Load() && len(s.cache.Apps()) > 0 {
		s.initialized = true
		n := len(s.cache.Apps())
		s.logger.Info("launcher: initialized from cache",
			slog.Int("apps", n),
			slog.Duration("elapsed", time.Since(start)))
		return InitResult{Success: true, Message: fmt.Sprintf("index ready from cache, %d apps", n), AppCount: n, FromCache: true}
	}

	if s.cache.Update() && len(s.cache.Apps()) > 0 {
		s.initialized = true
		n := len(s.cache.Apps())
		s.logger.Info("launcher: initialized from scan",
			slog.Int("apps", n),
			slog.Duration("elapsed", time.Since(start)))
		return InitResult{Success: true, Message: fmt.Sprintf("index ready from scan, %d apps", n), AppCount: n}
	}

	if s.scanner != nil {
		if idx := s.scanner.Scan(); len(idx) > 0 {
			s.fallback = idx
			s.initialized = true
			s.logger.Warn("launcher: initialized from raw scan, cache unavailable",
				slog.Int("apps", len(idx)))
			return InitResult{Success: true, Message: fmt.Sprintf("index ready from raw scan, %d apps", len(idx)), AppCount: len(idx)}
		}
	}

	s.logger.Error("launcher: initialization failed, no apps found")
	return InitResult{Success: false, Message: "initialization failed: no applications found", AppCount: 0}
}

// ensureInit lazily initializes on the first operation that needs the
// index. Callers hold the mutex.
func (s *Service) ensureInit() bool {
	if s.initialized {
		return true
	}
	s.logger.Warn("launcher: index not initialized, initializing now")
	return s.initializeLocked().Success
}

// index returns the live index. Callers hold the mutex.
func (s *Service) index() map[string]models.AppEntry {
	if apps := s.cache.Apps(); len(apps) > 0 {
		return apps
	}
	return s.fallback
}

// List returns the index sorted by "name", "usage", or "recent",
// truncated to limit.
func (s *Service) List(sortBy string, limit int) ListResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ensureInit() {
		return ListResult{Message: "index not initialized", Apps: []AppInfo{}}
	}
	if limit <= 0 {
		limit = 100
	}

	idx := s.index()
	apps := make([]AppInfo, 0, len(idx))
	for name, entry := range idx {
		apps = append(apps, AppInfo{
			Name:      name,
			Path:      entry.Path,
			Platform:  entry.Platform,
			Source:    entry.Source,
			Aliases:   entry.Aliases,
			IsRunning: s.executor.IsRunning(name),
		})
	}

	switch sortBy {
	case "usage":
		sort.SliceStable(apps, func(i, j int) bool {
			ci, cj := s.usageCount(apps[i].Name), s.usageCount(apps[j].Name)
			if ci != cj {
				return ci > cj
			}
			return apps[i].Name < apps[j].Name
		})
	case "recent":
		sort.SliceStable(apps, func(i, j int) bool {
			ti, tj := s.lastUsed(apps[i].Name), s.lastUsed(apps[j].Name)
			if ti != tj {
				return ti > tj
			}
			return apps[i].Name < apps[j].Name
		})
	default:
		sort.SliceStable(apps, func(i, j int) bool {
			return strings.ToLower(apps[i].Name) < strings.ToLower(apps[j].Name)
		})
	}

	total := len(apps)
	if len(apps) > limit {
		apps = apps[:limit]
	}
	return ListResult{
		Success:       true,
		Message:       "app list ready",
		TotalCount:    total,
		ReturnedCount: len(apps),
		Apps:          apps,
	}
}

func (s *Service) usageCount(name string) int {
	if rec := s.tracker.Get(name); rec != nil {
		return rec.Count
	}
	return 0
}

func (s *Service) lastUsed(name string) int64 {
	if rec := s.tracker.Get(name); rec != nil {
		return rec.LastUsedTimestamp
	}
	return 0
}

// Search resolves a natural-language query into ranked candidates.
func (s *Service) Search(query string, maxResults int) SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchLocked(query, maxResults)
}

func (s *Service) searchLocked(query string, maxResults int) SearchResult {
	if query == "" {
		return SearchResult{Message: "query must not be empty", Query: query, Results: []SearchItem{}}
	}
	if !s.ensureInit() {
		return SearchResult{Message: "index not initialized", Query: query, Results: []SearchItem{}}
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	idx := s.index()
	res := s.matcher.Resolve(query, idx)

	// With usage priority enabled, launch frequency reorders the
	// candidates the matcher accepted.
	cands := s.tracker.SortByUsage(res.Candidates)
	best := res.MatchedApp
	if len(cands) > 0 {
		best = cands[0].Name
	}

	items := make([]SearchItem, 0, len(cands))
	for _, c := range cands {
		if len(items) >= maxResults {
			break
		}
		items = append(items, SearchItem{
			Name:       c.Name,
			Path:       idx[c.Name].Path,
			Confidence: c.Confidence,
			IsRunning:  s.executor.IsRunning(c.Name),
		})
	}
	return SearchResult{
		Success:   true,
		Message:   fmt.Sprintf("found %d matches", len(items)),
		Query:     query,
		BestMatch: best,
		Results:   items,
	}
}

// Open launches the named app. A verbatim index hit wins; otherwise the
// matcher resolves the name as a query and the best candidate is used.
func (s *Service) Open(appName string) OpenResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if appName == "" {
		return OpenResult{Message: "app name must not be empty", AppName: appName}
	}
	if !s.ensureInit() {
		return OpenResult{Message: "index not initialized", AppName: appName}
	}

	idx := s.index()
	query := appName
	confidence := 1.0
	entry, ok := idx[appName]
	if !ok {
		sr := s.searchLocked(appName, 1)
		if !sr.Success || len(sr.Results) == 0 {
			s.logger.Warn("launcher: app not found", slog.String("query", appName))
			s.journalRecord(journal.Row{AppName: appName, Query: query, Error: "app not found"})
			return OpenResult{Message: fmt.Sprintf("app not found: %s", appName), AppName: appName}
		}
		appName = sr.Results[0].Name
		confidence = sr.Results[0].Confidence
		entry = idx[appName]
		s.logger.Info("launcher: resolved via matcher",
			slog.String("query", query),
			slog.String("app", appName),
			slog.Float64("confidence", confidence))
	}

	err := s.executor.Execute(appName, entry)
	row := journal.Row{
		AppName:    appName,
		AppPath:    entry.Path,
		Query:      query,
		Confidence: confidence,
		Success:    err == nil,
	}
	if err != nil {
		row.Error = err.Error()
		s.journalRecord(row)
		return OpenResult{Message: err.Error(), AppName: appName, AppPath: entry.Path}
	}
	s.journalRecord(row)
	s.tracker.Record(appName)

	return OpenResult{
		Success:   true,
		Message:   fmt.Sprintf("launched %s", appName),
		AppName:   appName,
		AppPath:   entry.Path,
		IsRunning: s.executor.IsRunning(appName),
	}
}

// Reload drops the cache and rebuilds the index from a fresh scan.
func (s *Service) Reload() ReloadResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	s.cache.Clear()
	s.fallback = nil

	if !s.cache.Update() {
		s.initialized = false
		return ReloadResult{Message: "reload failed: scan produced no usable index"}
	}
	s.initialized = true
	n := len(s.cache.Apps())
	elapsed := time.Since(start).Seconds()
	s.logger.Info("launcher: index reloaded",
		slog.Int("apps", n),
		slog.Duration("elapsed", time.Since(start)))
	return ReloadResult{
		Success:  true,
		Message:  fmt.Sprintf("index reloaded, %d apps", n),
		AppCount: n,
		Elapsed:  elapsed,
	}
}

// RefreshCache rebuilds the index from a fresh scan. It exists so the
// install-root watcher mutates the cache under the same mutex the HTTP
// and MCP surfaces read through. Returns the new index size on success.
func (s *Service) RefreshCache() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cache.Update() {
		return 0, false
	}
	s.fallback = nil
	s.initialized = true
	return len(s.cache.Apps()), true
}

// Status reports the current state without touching the index.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, statErr := os.Stat(s.cache.Path())
	return Status{
		Initialized:   s.initialized,
		AppCount:      len(s.index()),
		CacheFile:     s.cache.Path(),
		CacheExists:   statErr == nil,
		UsageTracking: s.tracker.Tracking(),
		MostUsed:      entryNames(s.tracker.MostUsed(5)),
		RecentlyUsed:  entryNames(s.tracker.RecentlyUsed(5)),
	}
}

// AddAlias registers a hand-curated synonym for an app.
func (s *Service) AddAlias(app, alias string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matcher.AddAlias(app, alias)
}

// History returns recent journal entries, newest first.
func (s *Service) History(limit int) ([]journal.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.journal == nil {
		return nil, fmt.Errorf("launch journal is not configured")
	}
	return s.journal.Recent(limit)
}

func (s *Service) journalRecord(row journal.Row) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(row); err != nil {
		s.logger.Warn("launcher: journal write failed", slog.String("error", err.Error()))
	}
}

func entryNames(entries []usage.Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}
