package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipforge/internal/api/response"
	"github.com/kiranshivaraju/clipforge/internal/backend"
	"github.com/kiranshivaraju/clipforge/internal/dashboard"
	"github.com/kiranshivaraju/clipforge/internal/session"
)

// writeError maps a session or dashboard failure onto the error envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, session.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", nil)
		return
	}

	var derr *dashboard.Error
	if !errors.As(err, &derr) {
		slog.Error("unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
		return
	}

	details := map[string]string{"op": derr.Op, "kind": derr.Kind.String()}
	switch derr.Kind {
	case dashboard.KindPrecondition:
		response.Error(w, http.StatusUnprocessableEntity, "PRECONDITION_FAILED", derr.Message, details)
	case dashboard.KindDeclined:
		response.Error(w, http.StatusBadGateway, "BACKEND_DECLINED", derr.Message, details)
	case dashboard.KindTransport:
		if errors.Is(err, backend.ErrBackendTimeout) {
			response.Error(w, http.StatusGatewayTimeout, "BACKEND_TIMEOUT", derr.Message, details)
			return
		}
		response.Error(w, http.StatusBadGateway, "BACKEND_UNREACHABLE", derr.Message, details)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", derr.Message, details)
	}
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", name+" must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}
