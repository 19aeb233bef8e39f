// Package usage records application launch events and derives the
// recency/frequency score used for ranking.
package usage

import (
	"encoding/json"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/starford/raido/internal/fsutil"
	"github.com/starford/raido/internal/models"
)

// Tracker owns the in-memory usage table and its on-disk JSON mirror.
// Every mutation is persisted immediately (write-through, no batching).
// Not safe for concurrent use.
type Tracker struct {
	path     string
	tracking bool
	priority bool
	logger   *slog.Logger

	data map[string]*models.UsageRecord
	now  func() time.Time
}

// Entry pairs an application name with its usage record in sorted listings.
type Entry struct {
	Name   string             `json:"name"`
	Record models.UsageRecord `json:"record"`
}

// New creates a tracker backed by the file at path and loads any existing
// usage table from it. A missing or malformed file yields an empty table,
// never an error.
func New(path string, tracking, priority bool, logger *slog.Logger) *Tracker {
	t := &Tracker{
		path:     path,
		tracking: tracking,
		priority: priority,
		logger:   logger,
		data:     map[string]*models.UsageRecord{},
		now:      time.Now,
	}
	t.load()
	return t
}

func (t *Tracker) load() {
	data, err := os.ReadFile(t.path)
	if err != nil {
		t.logger.Info("usage: no readable usage file", slog.String("path", t.path))
		return
	}
	table := map[string]*models.UsageRecord{}
	if err := json.Unmarshal(data, &table); err != nil {
		t.logger.Warn("usage: parse failed, starting empty", slog.String("error", err.Error()))
		return
	}
	t.data = table
	t.logger.Info("usage: loaded", slog.Int("apps", len(table)))
}

func (t *Tracker) save() bool {
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		t.logger.Error("usage: marshal failed", slog.String("error", err.Error()))
		return false
	}
	if err := fsutil.WriteAtomic(t.path, data); err != nil {
		t.logger.Error("usage: save failed", slog.String("error", err.Error()))
		return false
	}
	return true
}

// Record notes one successful launch of name and persists the table.
// It is a no-op returning false when tracking is disabled or name is empty.
func (t *Tracker) Record(name string) bool {
	if !t.tracking || name == "" {
		return false
	}
	now := t.now()
	ts := now.Unix()

	rec, ok := t.data[name]
	if !ok {
		rec = &models.UsageRecord{FirstUsed: now}
		t.data[name] = rec
	}
	rec.Count++
	rec.LastUsed = now
	rec.LastUsedTimestamp = ts
	if len(rec.History) >= models.HistoryLimit {
		rec.History = rec.History[len(rec.History)-models.HistoryLimit+1:]
	}
	rec.History = append(rec.History, ts)

	t.logger.Info("usage: recorded launch",
		slog.String("app", name),
		slog.Int("count", rec.Count))
	t.save()
	return true
}

// Tracking reports whether launch recording is enabled.
func (t *Tracker) Tracking() bool {
	return t.tracking
}

// Get returns the usage record for name, nil if unseen.
func (t *Tracker) Get(name string) *models.UsageRecord {
	return t.data[name]
}

// Score returns count * decay weight for name, 0 when priority ranking is
// disabled, tracking is disabled, or the app has never been launched.
func (t *Tracker) Score(name string) float64 {
	if !t.tracking || !t.priority {
		return 0
	}
	rec, ok := t.data[name]
	if !ok {
		return 0
	}
	age := t.now().Unix() - rec.LastUsedTimestamp
	return float64(rec.Count) * decayWeight(age)
}

// decayWeight buckets the seconds since last use into a coarse step
// function. Deliberately not an exponential curve: the buckets are
// predictable and easy to test.
func decayWeight(ageSeconds int64) float64 {
	switch {
	case ageSeconds < 3600:
		return 1.0
	case ageSeconds < 86400:
		return 0.7
	case ageSeconds < 604800:
		return 0.3
	case ageSeconds < 2592000:
		return 0.1
	default:
		return 0.05
	}
}

// SortByUsage orders candidates descending by usage score, preserving the
// original order on ties. Passthrough when priority ranking is disabled.
func (t *Tracker) SortByUsage(candidates []models.Candidate) []models.Candidate {
	if !t.priority {
		return candidates
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return t.Score(candidates[i].Name) > t.Score(candidates[j].Name)
	})
	return candidates
}

// MostUsed returns up to limit entries ordered descending by launch count.
func (t *Tracker) MostUsed(limit int) []Entry {
	return t.sorted(limit, func(a, b *models.UsageRecord) bool {
		return a.Count > b.Count
	})
}

// RecentlyUsed returns up to limit entries ordered descending by last use.
func (t *Tracker) RecentlyUsed(limit int) []Entry {
	return t.sorted(limit, func(a, b *models.UsageRecord) bool {
		return a.LastUsedTimestamp > b.LastUsedTimestamp
	})
}

func (t *Tracker) sorted(limit int, less func(a, b *models.UsageRecord) bool) []Entry {
	entries := make([]Entry, 0, len(t.data))
	for name, rec := range t.data {
		entries = append(entries, Entry{Name: name, Record: *rec})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if less(&entries[i].Record, &entries[j].Record) {
			return true
		}
		if less(&entries[j].Record, &entries[i].Record) {
			return false
		}
		// Tie-break on name for deterministic output.
		return entries[i].Name < entries[j].Name
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Clear removes the usage record for name and persists. Unknown names are
// logged but not an error.
func (t *Tracker) Clear(name string) bool {
	if _, ok := t.data[name]; !ok {
		t.logger.Warn("usage: no record to clear", slog.String("app", name))
	}
	delete(t.data, name)
	return t.save()
}

// ClearAll empties the usage table and persists.
func (t *Tracker) ClearAll() bool {
	t.data = map[string]*models.UsageRecord{}
	return t.save()
}
