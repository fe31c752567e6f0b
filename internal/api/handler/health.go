package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/kiranshivaraju/clipforge/internal/api/response"
)

// Pinger is anything whose reachability the health check reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

const healthTimeout = 3 * time.Second

// NewHealthHandler returns an http.HandlerFunc for GET /api/v1/health.
// Nil dependencies are optional ones that were not configured and report
// "disabled".
func NewHealthHandler(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status := make(map[string]string, len(checks))
		degraded := false
		for name, p := range checks {
			switch {
			case p == nil:
				status[name] = "disabled"
			case p.Ping(ctx) != nil:
				status[name] = "degraded"
				degraded = true
			default:
				status[name] = "ok"
			}
		}

		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", status)
			return
		}

		response.JSON(w, map[string]any{
			"status": "ok",
			"checks": status,
		})
	}
}
