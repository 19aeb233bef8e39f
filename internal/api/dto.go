package api

import (
	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/launcher"
)

// OpenAppRequest is the request body for launching an app.
type OpenAppRequest struct {
	AppName string `json:"app_name" example:"Google Chrome" validate:"required"`
}

// ListResult is the app-list response type (aliased from the domain layer).
type ListResult = launcher.ListResult

// SearchResult is the search response type (aliased from the domain layer).
type SearchResult = launcher.SearchResult

// OpenResult is the launch response type (aliased from the domain layer).
type OpenResult = launcher.OpenResult

// HistoryResponse wraps journal entries.
type HistoryResponse struct {
	Entries []journal.Row `json:"entries" validate:"required"`
}
