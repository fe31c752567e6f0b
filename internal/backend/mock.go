package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipforge/pkg/models"
)

// MockClient satisfies Client without a network. Nil funcs fall back to
// canned responses, so a zero MockClient is usable for local frontend work.
type MockClient struct {
	ValidateURLFunc  func(ctx context.Context, url string) (*ValidationResponse, error)
	IngestURLFunc    func(ctx context.Context, req IngestURLRequest) (*IngestResponse, error)
	IngestUploadFunc func(ctx context.Context, req UploadRequest) (*IngestResponse, error)
	CreateJobFunc    func(ctx context.Context, req models.JobRequest) (*JobResponse, error)
	ReadyFunc        func(ctx context.Context) error
}

// NewMockClient returns a MockClient with canned default responses.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) ValidateURL(ctx context.Context, url string) (*ValidationResponse, error) {
	if m.ValidateURLFunc != nil {
		return m.ValidateURLFunc(ctx, url)
	}
	ok := strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
	details := map[string]any{"ok": ok, "url": url}
	if !ok {
		details["reason"] = "URL must use http or https"
	}
	body, _ := json.Marshal(details)
	return &ValidationResponse{OK: ok, Details: body}, nil
}

func (m *MockClient) IngestURL(ctx context.Context, req IngestURLRequest) (*IngestResponse, error) {
	if m.IngestURLFunc != nil {
		return m.IngestURLFunc(ctx, req)
	}
	return &IngestResponse{
		VideoID: mockVideoID(),
		Extracted: &models.ExtractedInfo{
			Container:  "mp4",
			Resolution: "1920x1080",
			Duration:   60,
			HasAudio:   true,
			AudioCodec: "aac",
			HasVideo:   true,
			VideoCodec: "h264",
		},
		Validation: json.RawMessage(`{"ok":true}`),
	}, nil
}

func (m *MockClient) IngestUpload(ctx context.Context, req UploadRequest) (*IngestResponse, error) {
	if m.IngestUploadFunc != nil {
		return m.IngestUploadFunc(ctx, req)
	}
	n, err := io.Copy(io.Discard, req.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading upload: %v", ErrBackendUnreachable, err)
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &IngestResponse{
		VideoID: mockVideoID(),
		Upload: &models.UploadInfo{
			Category:    req.Category,
			ContentType: contentType,
			SizeBytes:   n,
		},
	}, nil
}

func (m *MockClient) CreateJob(ctx context.Context, req models.JobRequest) (*JobResponse, error) {
	if m.CreateJobFunc != nil {
		return m.CreateJobFunc(ctx, req)
	}
	body, err := json.Marshal(map[string]any{
		"status":   "completed",
		"job_type": req.JobType,
		"video_id": req.VideoID,
		"params":   req.Params,
		"output":   fmt.Sprintf("mock %s output", req.JobType),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding mock job response: %w", err)
	}
	return &JobResponse{StatusCode: 200, Body: body}, nil
}

func (m *MockClient) Ready(ctx context.Context) error {
	if m.ReadyFunc != nil {
		return m.ReadyFunc(ctx)
	}
	return nil
}

func mockVideoID() string {
	return "mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Compile-time check that MockClient implements Client.
var _ Client = (*MockClient)(nil)
