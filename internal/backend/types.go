package backend

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kiranshivaraju/clipforge/pkg/models"
)

// ValidationResponse is the outcome of POST /api/validate-url. Details holds
// the whole response body so it can be echoed to the user.
type ValidationResponse struct {
	OK      bool
	Details json.RawMessage
}

// IngestURLRequest is the body of POST /api/ingest/url. CookieHeader is
// forwarded verbatim for sources that need a signed-in session.
type IngestURLRequest struct {
	URL          string `json:"url"`
	CookieHeader string `json:"cookie_header,omitempty"`
}

// UploadRequest describes a local file streamed to POST /api/ingest/upload.
type UploadRequest struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Category    string
}

// IngestResponse is the success body of either ingestion endpoint.
type IngestResponse struct {
	VideoID    string                `json:"video_id"`
	Extracted  *models.ExtractedInfo `json:"extracted,omitempty"`
	Validation json.RawMessage       `json:"validation,omitempty"`
	Upload     *models.UploadInfo    `json:"upload,omitempty"`
}

// ValidationOK reports the embedded validation verdict. A missing or
// malformed validation object counts as not ok.
func (r *IngestResponse) ValidationOK() bool {
	if len(r.Validation) == 0 {
		return false
	}
	var v struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(r.Validation, &v); err != nil {
		return false
	}
	return v.OK
}

// JobResponse is whatever POST /api/jobs answered with.
type JobResponse struct {
	StatusCode int
	Body       json.RawMessage
}

// DeclinedError is returned when the backend answers an ingestion call with a
// non-2xx status. Detail is the backend's own message, if it sent one.
type DeclinedError struct {
	Op         string
	StatusCode int
	Detail     string
	Body       json.RawMessage
}

func (e *DeclinedError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

// Is lets errors.Is(err, ErrBackendDeclined) match.
func (e *DeclinedError) Is(target error) bool {
	return target == ErrBackendDeclined
}

type validateURLRequest struct {
	URL string `json:"url"`
}
