// Package cache persists the application index as a versioned, timestamped
// JSON envelope and applies the staleness policy on load.
package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/starford/raido/internal/fsutil"
	"github.com/starford/raido/internal/models"
)

// SchemaVersion tags envelopes written by this build.
const SchemaVersion = "1.0"

// Scanner produces a fresh index. Satisfied by *scanner.Scanner.
type Scanner interface {
	Scan() map[string]models.AppEntry
}

// Store owns the in-memory index and its on-disk JSON mirror. It is not
// safe for concurrent use; the orchestrator serializes access.
type Store struct {
	path        string
	validHours  int
	incremental bool
	scanner     Scanner
	logger      *slog.Logger

	apps      map[string]models.AppEntry
	timestamp int64

	now func() time.Time
}

// New creates a cache store backed by the file at path. validHours <= 0
// means the cache never expires. When incremental is true, Update merges
// the previous index into the fresh scan instead of replacing it.
func New(path string, validHours int, incremental bool, sc Scanner, logger *slog.Logger) *Store {
	return &Store{
		path:        path,
		validHours:  validHours,
		incremental: incremental,
		scanner:     sc,
		logger:      logger,
		apps:        map[string]models.AppEntry{},
		now:         time.Now,
	}
}

// Apps returns the current in-memory index.
func (s *Store) Apps() map[string]models.AppEntry {
	return s.apps
}

// Timestamp returns the epoch seconds of the last load or save, 0 if none.
func (s *Store) Timestamp() int64 {
	return s.timestamp
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// rawEnvelope mirrors models.CacheEnvelope with pointer fields so that a
// missing timestamp or apps key is distinguishable from a zero value.
type rawEnvelope struct {
	Timestamp *int64                     `json:"timestamp"`
	Version   string                     `json:"version"`
	Apps      map[string]models.AppEntry `json:"apps"`
}

// Load reads the envelope from disk and accepts it only when the schema is
// valid and the timestamp is within the validity window. On any failure it
// returns false and leaves the in-memory index empty; it never fails hard.
func (s *Store) Load() bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Info("cache: no readable cache file", slog.String("path", s.path))
		return false
	}

	var env rawEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Warn("cache: parse failed", slog.String("error", err.Error()))
		return false
	}
	if err := validateEnvelope(&env); err != nil {
		s.logger.Warn("cache: invalid envelope", slog.String("error", err.Error()))
		return false
	}
	if s.expired(*env.Timestamp) {
		s.logger.Info("cache: expired",
			slog.Int64("timestamp", *env.Timestamp),
			slog.Int("valid_hours", s.validHours))
		return false
	}

	s.apps = env.Apps
	s.timestamp = *env.Timestamp
	s.logger.Info("cache: loaded", slog.Int("apps", len(s.apps)))
	return true
}

// Save writes a fresh envelope for index, creating the parent directory if
// absent. The write goes to a temp file first and is renamed into place so
// a crash mid-write cannot corrupt the cache.
func (s *Store) Save(index map[string]models.AppEntry) bool {
	env := models.CacheEnvelope{
		Timestamp: s.now().Unix(),
		Version:   SchemaVersion,
		Apps:      index,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		s.logger.Error("cache: marshal failed", slog.String("error", err.Error()))
		return false
	}
	if err := fsutil.WriteAtomic(s.path, data); err != nil {
		s.logger.Error("cache: save failed", slog.String("error", err.Error()))
		return false
	}
	s.apps = index
	s.timestamp = env.Timestamp
	s.logger.Info("cache: saved", slog.Int("apps", len(index)))
	return true
}

// Update runs a fresh scan, merges it with the previous index when
// incremental mode is on, and saves the result.
func (s *Store) Update() bool {
	fresh := s.scanner.Scan()
	if s.incremental && len(s.apps) > 0 {
		return s.Save(merge(s.apps, fresh))
	}
	return s.Save(fresh)
}

// Clear deletes the backing file if present and resets the in-memory index.
// Absence of the file is not an error.
func (s *Store) Clear() bool {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Error("cache: clear failed", slog.String("error", err.Error()))
		return false
	}
	s.apps = map[string]models.AppEntry{}
	s.timestamp = 0
	s.logger.Info("cache: cleared")
	return true
}

func (s *Store) expired(timestamp int64) bool {
	if s.validHours <= 0 {
		return false
	}
	age := s.now().Unix() - timestamp
	// Exactly at the threshold is still valid.
	return age > int64(s.validHours)*3600
}

func validateEnvelope(env *rawEnvelope) error {
	if env.Timestamp == nil {
		return fmt.Errorf("cache: missing timestamp")
	}
	if env.Apps == nil {
		return fmt.Errorf("cache: missing apps mapping")
	}
	for name, entry := range env.Apps {
		if entry.Path == "" {
			return fmt.Errorf("cache: entry %q has empty path", name)
		}
	}
	return nil
}

// merge builds the incremental index: every name from the fresh scan is
// kept with its freshly scanned path/platform/source, and only the old
// entry's aliases survive (hand-curated aliases must outlive re-scans).
// Apps absent from the fresh scan are dropped.
func merge(old, fresh map[string]models.AppEntry) map[string]models.AppEntry {
	merged := make(map[string]models.AppEntry, len(fresh))
	for name, entry := range fresh {
		if prev, ok := old[name]; ok {
			entry.Aliases = mergeAliases(prev.Aliases, entry.Aliases)
		}
		merged[name] = entry
	}
	return merged
}

// mergeAliases unions two alias lists, old first, preserving insertion
// order and dropping duplicates.
func mergeAliases(old, fresh []string) []string {
	seen := make(map[string]struct{}, len(old)+len(fresh))
	out := make([]string, 0, len(old)+len(fresh))
	for _, a := range append(append([]string{}, old...), fresh...) {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
