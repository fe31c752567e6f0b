package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/clipforge/internal/api/middleware"
	"github.com/kiranshivaraju/clipforge/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
// Auth and RateLimit are optional; without Auth the admin routes are not
// mounted.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	CreateSession    http.HandlerFunc
	GetSession       http.HandlerFunc
	DeleteSession    http.HandlerFunc
	ValidateURL      http.HandlerFunc
	IngestURL        http.HandlerFunc
	UploadFile       http.HandlerFunc
	CreateJob        http.HandlerFunc
	RunPreset        http.HandlerFunc
	JobHistory       http.HandlerFunc
	IngestionHistory http.HandlerFunc

	CreateKeyHandler http.HandlerFunc
	ListKeysHandler  http.HandlerFunc
	RevokeKeyHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		if deps.Auth != nil {
			r.Use(deps.Auth.Authenticate)
		}
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/v1/sessions", orNotImplemented(deps.CreateSession))
		r.Route("/api/v1/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", orNotImplemented(deps.GetSession))
			r.Delete("/", orNotImplemented(deps.DeleteSession))

			r.Post("/validate-url", orNotImplemented(deps.ValidateURL))
			r.Post("/ingest/url", orNotImplemented(deps.IngestURL))
			r.Post("/ingest/upload", orNotImplemented(deps.UploadFile))

			r.Post("/jobs", orNotImplemented(deps.CreateJob))
			r.Post("/jobs/{jobType}/preset", orNotImplemented(deps.RunPreset))

			r.Get("/history", orNotImplemented(deps.JobHistory))
			r.Get("/ingestions", orNotImplemented(deps.IngestionHistory))
		})

		// Admin routes
		if deps.Auth != nil {
			r.Group(func(r chi.Router) {
				r.Use(deps.Auth.RequireScope(mw.ScopeAdmin))

				r.Post("/api/v1/admin/keys", orNotImplemented(deps.CreateKeyHandler))
				r.Get("/api/v1/admin/keys", orNotImplemented(deps.ListKeysHandler))
				r.Delete("/api/v1/admin/keys/{keyID}", orNotImplemented(deps.RevokeKeyHandler))
			})
		}
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
