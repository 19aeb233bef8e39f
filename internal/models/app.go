// Package models defines the domain types for Raido.
package models

import "time"

// Platform identifiers. Anything else is reported as PlatformUnknown.
const (
	PlatformWindows = "windows"
	PlatformMacOS   = "macos"
	PlatformUnknown = "unknown"
)

// AppEntry is one discovered application in the index.
// Names are unique within the index; a later source overwrites an earlier one.
type AppEntry struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Aliases  []string `json:"aliases"`
	Platform string   `json:"platform"`
	// Source records which discovery source produced the entry
	// (registry, program_files, spotlight, applications_folder).
	// Diagnostic only, never used for matching.
	Source string `json:"scanned_from"`
}

// CacheEnvelope is the persisted form of the application index.
type CacheEnvelope struct {
	Timestamp int64               `json:"timestamp"`
	Version   string              `json:"version"`
	Apps      map[string]AppEntry `json:"apps"`
}

// UsageRecord is one application's launch history.
type UsageRecord struct {
	Count             int       `json:"count"`
	LastUsed          time.Time `json:"last_used"`
	LastUsedTimestamp int64     `json:"last_used_timestamp"`
	FirstUsed         time.Time `json:"first_used"`
	// History holds launch epoch timestamps, oldest first, capped at
	// HistoryLimit entries with FIFO eviction.
	History []int64 `json:"usage_history"`
}

// HistoryLimit caps UsageRecord.History.
const HistoryLimit = 100

// Candidate is one (name, confidence) pair produced by the matcher.
type Candidate struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// MatchResult is the transient outcome of resolving a query against the index.
type MatchResult struct {
	Query      string      `json:"query"`
	MatchedApp string      `json:"matched_app,omitempty"`
	Confidence float64     `json:"confidence"`
	Candidates []Candidate `json:"candidates"`
}

// ExecutedApp records one successful launch in the executor's in-memory list.
type ExecutedApp struct {
	Name string `json:"app_name"`
	Path string `json:"app_path"`
	// Timestamp is the launch time, epoch seconds.
	Timestamp int64 `json:"timestamp"`
}
