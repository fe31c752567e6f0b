package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/kiranshivaraju/clipforge/pkg/models"
)

// Sentinel errors for backend client failures.
var (
	ErrBackendUnreachable = errors.New("backend unreachable")
	ErrBackendTimeout     = errors.New("backend request timeout")
	ErrBackendDeclined    = errors.New("backend declined request")
	ErrInvalidResponse    = errors.New("backend returned invalid response")
)

// maxResponseBytes caps how much of a response body is read into memory.
const maxResponseBytes = 16 << 20

// Client is the interface for talking to the media-processing backend.
// Every method is a single request/response exchange; nothing is retried.
type Client interface {
	ValidateURL(ctx context.Context, url string) (*ValidationResponse, error)
	IngestURL(ctx context.Context, req IngestURLRequest) (*IngestResponse, error)
	IngestUpload(ctx context.Context, req UploadRequest) (*IngestResponse, error)
	CreateJob(ctx context.Context, req models.JobRequest) (*JobResponse, error)
	Ready(ctx context.Context) error
}

// HTTPClient implements Client using the backend's HTTP API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new backend HTTP client. A zero timeout leaves
// requests bounded only by their context.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// ValidateURL asks the backend whether url points to usable media. The HTTP
// status is not consulted: the body's ok field is the verdict.
func (c *HTTPClient) ValidateURL(ctx context.Context, url string) (*ValidationResponse, error) {
	status, body, err := c.postJSON(ctx, "/api/validate-url", validateURLRequest{URL: url})
	if err != nil {
		return nil, err
	}

	var verdict struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(body, &verdict); err != nil {
		return nil, fmt.Errorf("%w: decoding validation response (status %d): %v", ErrInvalidResponse, status, err)
	}

	return &ValidationResponse{OK: verdict.OK, Details: body}, nil
}

// IngestURL commits a URL to the backend. A non-2xx status is a declined
// request even when the body is valid JSON.
func (c *HTTPClient) IngestURL(ctx context.Context, req IngestURLRequest) (*IngestResponse, error) {
	status, body, err := c.postJSON(ctx, "/api/ingest/url", req)
	if err != nil {
		return nil, err
	}
	return decodeIngestResponse("ingest url", status, body)
}

func (c *HTTPClient) IngestUpload(ctx context.Context, req UploadRequest) (*IngestResponse, error) {
	pr, contentType := multipartBody(req)
	defer pr.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ingest/upload", pr)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	status, body, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	return decodeIngestResponse("ingest upload", status, body)
}

// CreateJob dispatches a job. Any JSON body the backend returns is handed
// back verbatim together with its status, including declared errors.
func (c *HTTPClient) CreateJob(ctx context.Context, req models.JobRequest) (*JobResponse, error) {
	status, body, err := c.postJSON(ctx, "/api/jobs", req)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: job response is not JSON (status %d)", ErrInvalidResponse, status)
	}
	return &JobResponse{StatusCode: status, Body: body}, nil
}

// Ready reports whether the backend answers HTTP at all. Any response counts.
func (c *HTTPClient) Ready(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: backend not ready (status %d)", ErrBackendUnreachable, resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, payload any) (int, []byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	return c.do(httpReq)
}

func (c *HTTPClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, classifyError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, classifyError(err)
	}
	return resp.StatusCode, body, nil
}

func decodeIngestResponse(op string, status int, body []byte) (*IngestResponse, error) {
	if status < 200 || status > 299 {
		return nil, &DeclinedError{Op: op, StatusCode: status, Detail: extractDetail(body), Body: body}
	}

	var out IngestResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding %s response: %v", ErrInvalidResponse, op, err)
	}
	if out.VideoID == "" {
		return nil, fmt.Errorf("%w: %s response has no video_id", ErrInvalidResponse, op)
	}
	return &out, nil
}

// extractDetail pulls the user-facing message out of an error body. detail may
// be a plain string or a structured value; structured values are returned as
// their JSON text.
func extractDetail(body []byte) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 || string(env.Detail) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		return s
	}
	return string(env.Detail)
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
