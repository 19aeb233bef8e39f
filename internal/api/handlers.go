package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/starford/raido/internal/launcher"
)

// Handler holds API route handlers.
type Handler struct {
	svc *launcher.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *launcher.Service) *Handler {
	return &Handler{svc: svc}
}

// ListApps handles GET /api/apps.
//
//	@Summary		List detected applications
//	@Tags			apps
//	@Produce		json
//	@Param			sort_by	query		string	false	"Sort field"	Enums(name, usage, recent)
//	@Param			limit	query		int		false	"Max apps to return"
//	@Success		200		{object}	launcher.ListResult
//	@Security		BearerAuth
//	@Router			/apps [get]
func (h *Handler) ListApps(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	res := h.svc.List(q.Get("sort_by"), limit)
	if !res.Success {
		writeJSON(w, failureStatus(res.Message), errorBody(res.Message))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SearchApps handles GET /api/apps/search.
//
//	@Summary		Search applications with a natural-language query
//	@Tags			apps
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	launcher.SearchResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/apps/search [get]
func (h *Handler) SearchApps(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	res := h.svc.Search(q, limit)
	if !res.Success {
		writeJSON(w, failureStatus(res.Message), errorBody(res.Message))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// OpenApp handles POST /api/apps/open.
//
//	@Summary		Launch an application by name or natural-language request
//	@Tags			apps
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenAppRequest	true	"App to open"
//	@Success		200		{object}	launcher.OpenResult
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/apps/open [post]
func (h *Handler) OpenApp(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req OpenAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.AppName == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("app_name is required"))
		return
	}

	res := h.svc.Open(req.AppName)
	if !res.Success {
		slog.Warn("open app failed",
			slog.String("app", req.AppName),
			slog.String("reason", res.Message))
		writeJSON(w, failureStatus(res.Message), errorBody(res.Message))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ReloadApps handles POST /api/apps/reload.
//
//	@Summary		Clear the cache and rescan installed applications
//	@Tags			apps
//	@Produce		json
//	@Success		200	{object}	launcher.ReloadResult
//	@Security		BearerAuth
//	@Router			/apps/reload [post]
func (h *Handler) ReloadApps(w http.ResponseWriter, r *http.Request) {
	res := h.svc.Reload()
	if !res.Success {
		slog.Error("reload failed", slog.String("reason", res.Message))
		writeJSON(w, http.StatusInternalServerError, errorBody(res.Message))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Status handles GET /api/status.
//
//	@Summary		Report the launcher's current state
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	launcher.Status
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// History handles GET /api/history.
//
//	@Summary		Recent launch attempts from the journal, newest first
//	@Tags			status
//	@Produce		json
//	@Param			limit	query		int	false	"Max entries"
//	@Success		200		{object}	HistoryResponse
//	@Security		BearerAuth
//	@Router			/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.svc.History(limit)
	if err != nil {
		slog.Error("history failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Entries: rows})
}

// failureStatus maps a structured failure message onto an HTTP status.
// The service reports failures as messages, not sentinel errors, because
// the same results cross the MCP boundary as plain text.
func failureStatus(msg string) int {
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "security policy"), strings.Contains(msg, "unsupported platform"):
		return http.StatusForbidden
	case strings.Contains(msg, "must not be empty"), strings.Contains(msg, "required"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
