package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kiranshivaraju/clipforge/internal/api/response"
	"github.com/kiranshivaraju/clipforge/internal/store"
	"github.com/kiranshivaraju/clipforge/pkg/models"
)

// History is the read side of the job and ingestion history.
type History interface {
	ListJobRuns(ctx context.Context, filter store.HistoryFilter) ([]*models.JobRun, int, error)
	ListIngestions(ctx context.Context, filter store.HistoryFilter) ([]*models.Ingestion, int, error)
}

// NewJobHistoryHandler returns an http.HandlerFunc for
// GET /api/v1/sessions/{sessionID}/history. History outlives the session, so
// a reaped session id still lists its runs.
func NewJobHistoryHandler(history History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, ok := historyFilter(w, r)
		if !ok {
			return
		}
		if jt := r.URL.Query().Get("job_type"); jt != "" {
			filter.JobType = models.JobType(jt)
			if !filter.JobType.Valid() {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "job_type is not a known job type", nil)
				return
			}
		}

		runs, total, err := history.ListJobRuns(r.Context(), filter)
		if err != nil {
			slog.Error("listing job runs failed", "session_id", filter.SessionID, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list job history", nil)
			return
		}
		if runs == nil {
			runs = []*models.JobRun{}
		}
		response.Collection(w, runs, response.Pagination(filter.Page, filter.Limit, total))
	}
}

// NewIngestionHistoryHandler returns an http.HandlerFunc for
// GET /api/v1/sessions/{sessionID}/ingestions.
func NewIngestionHistoryHandler(history History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, ok := historyFilter(w, r)
		if !ok {
			return
		}

		ings, total, err := history.ListIngestions(r.Context(), filter)
		if err != nil {
			slog.Error("listing ingestions failed", "session_id", filter.SessionID, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list ingestions", nil)
			return
		}
		if ings == nil {
			ings = []*models.Ingestion{}
		}
		response.Collection(w, ings, response.Pagination(filter.Page, filter.Limit, total))
	}
}

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

func historyFilter(w http.ResponseWriter, r *http.Request) (store.HistoryFilter, bool) {
	id, ok := uuidParam(w, r, "sessionID")
	if !ok {
		return store.HistoryFilter{}, false
	}

	page, err := queryInt(r, "page", defaultPage)
	if err != nil || page < 1 {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "page must be a positive integer", nil)
		return store.HistoryFilter{}, false
	}
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil || limit < 1 || limit > maxLimit {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be between 1 and 100", nil)
		return store.HistoryFilter{}, false
	}

	return store.HistoryFilter{SessionID: id, Page: page, Limit: limit}, true
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
