package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipforge/internal/api/response"
	"github.com/kiranshivaraju/clipforge/internal/dashboard"
	"github.com/kiranshivaraju/clipforge/pkg/models"
)

// Sessions is the part of session.Manager the handlers depend on.
type Sessions interface {
	Create() *dashboard.Session
	Get(id uuid.UUID) (*dashboard.Session, error)
	Delete(id uuid.UUID) error
}

// uploadMemory bounds how much of each non-file multipart field is read.
const uploadMemory = 1 << 20

// NewCreateSessionHandler returns an http.HandlerFunc for POST /api/v1/sessions.
func NewCreateSessionHandler(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessions.Create()
		response.Created(w, s.Snapshot())
	}
}

// NewGetSessionHandler returns an http.HandlerFunc for GET /api/v1/sessions/{sessionID}.
func NewGetSessionHandler(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, sessions)
		if !ok {
			return
		}
		response.JSON(w, s.Snapshot())
	}
}

// NewDeleteSessionHandler returns an http.HandlerFunc for DELETE /api/v1/sessions/{sessionID}.
func NewDeleteSessionHandler(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "sessionID")
		if !ok {
			return
		}
		if err := sessions.Delete(id); err != nil {
			writeError(w, r, err)
			return
		}
		response.NoContent(w)
	}
}

// NewValidateURLHandler returns an http.HandlerFunc for
// POST /api/v1/sessions/{sessionID}/validate-url. The outcome of the check
// is reported through the snapshot's url_status, never as an error response.
func NewValidateURLHandler(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, sessions)
		if !ok {
			return
		}

		var req struct {
			URL string `json:"url"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		if _, err := s.ValidateURL(r.Context(), req.URL); err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, s.Snapshot())
	}
}

// NewIngestURLHandler returns an http.HandlerFunc for
// POST /api/v1/sessions/{sessionID}/ingest/url.
func NewIngestURLHandler(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, sessions)
		if !ok {
			return
		}

		var req struct {
			URL          string `json:"url"`
			CookieHeader string `json:"cookie_header"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		if _, err := s.IngestURL(r.Context(), req.URL, req.CookieHeader); err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, s.Snapshot())
	}
}

// NewUploadHandler returns an http.HandlerFunc for
// POST /api/v1/sessions/{sessionID}/ingest/upload.
//
// The multipart body is read part by part. Once the category fields seen so
// far resolve, the file part streams straight to the backend and later parts
// are ignored. A file that arrives before its category is spooled to a
// temporary file until the rest of the form has been read.
func NewUploadHandler(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, sessions)
		if !ok {
			return
		}

		mr, err := r.MultipartReader()
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Expected a multipart/form-data body", nil)
			return
		}

		var choice dashboard.CategoryChoice
		var file *dashboard.Upload
	parts:
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Malformed multipart body", nil)
				return
			}

			switch part.FormName() {
			case "file":
				if part.FileName() == "" || file != nil {
					continue
				}
				defer part.Close()
				file = &dashboard.Upload{
					Filename:    part.FileName(),
					ContentType: part.Header.Get("Content-Type"),
					Body:        part,
				}
				if _, err := dashboard.ResolveCategory(choice); err == nil {
					break parts
				}
				spool, err := spoolFile(part)
				if err != nil {
					slog.Warn("spooling upload failed", "error", err)
					response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Malformed multipart body", nil)
					return
				}
				defer removeSpool(spool)
				file.Body = spool
			case "category_mode", "category", "custom_category":
				v, err := readField(part)
				if err != nil {
					response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Malformed multipart body", nil)
					return
				}
				switch part.FormName() {
				case "category_mode":
					choice.Mode = models.CategoryMode(v)
				case "category":
					choice.Preset = v
				default:
					choice.Custom = v
				}
			}
		}

		if _, err := s.UploadLocalFile(r.Context(), file, choice); err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, s.Snapshot())
	}
}

func spoolFile(part io.Reader) (*os.File, error) {
	f, err := os.CreateTemp("", "clipforge-upload-*")
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}
	if _, err := io.Copy(f, part); err != nil {
		removeSpool(f)
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		removeSpool(f)
		return nil, fmt.Errorf("rewind spool file: %w", err)
	}
	return f, nil
}

func removeSpool(f *os.File) {
	f.Close()
	if err := os.Remove(f.Name()); err != nil {
		slog.Warn("removing upload spool failed", "path", f.Name(), "error", err)
	}
}

// NewCreateJobHandler returns an http.HandlerFunc for
// POST /api/v1/sessions/{sessionID}/jobs. A dispatched job always answers
// 200 with the job result; only precondition failures are errors.
func NewCreateJobHandler(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, sessions)
		if !ok {
			return
		}

		var req struct {
			JobType models.JobType  `json:"job_type"`
			Params  json.RawMessage `json:"params"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		var params any
		if len(req.Params) > 0 && string(req.Params) != "null" {
			params = req.Params
		}

		result, err := s.CreateJob(r.Context(), req.JobType, params)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, result)
	}
}

// NewRunPresetHandler returns an http.HandlerFunc for
// POST /api/v1/sessions/{sessionID}/jobs/{jobType}/preset.
func NewRunPresetHandler(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, sessions)
		if !ok {
			return
		}

		result, err := s.RunPreset(r.Context(), models.JobType(chi.URLParam(r, "jobType")))
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, result)
	}
}

func lookupSession(w http.ResponseWriter, r *http.Request, sessions Sessions) (*dashboard.Session, bool) {
	id, ok := uuidParam(w, r, "sessionID")
	if !ok {
		return nil, false
	}
	s, err := sessions.Get(id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return s, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return false
	}
	return true
}

func readField(part io.Reader) (string, error) {
	b, err := io.ReadAll(io.LimitReader(part, uploadMemory))
	if err != nil {
		return "", fmt.Errorf("read form field: %w", err)
	}
	return string(b), nil
}
