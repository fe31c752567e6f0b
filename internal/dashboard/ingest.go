package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipforge/internal/backend"
	"github.com/kiranshivaraju/clipforge/pkg/models"
)

// IngestResult is what a successful ingestion attached to the session.
type IngestResult struct {
	VideoID   string                `json:"video_id"`
	Extracted *models.ExtractedInfo `json:"extracted"`
	Category  *string               `json:"category"`
	URLStatus URLStatusView         `json:"url_status"`
}

// IngestURL commits the trimmed url to the backend and attaches the returned media,
// replacing whatever was attached before. cookieHeader is forwarded verbatim
// when non-empty. While the request is in flight the URL status reads
// ingesting; on failure it goes back to what it was and nothing else changes.
func (s *Session) IngestURL(ctx context.Context, url, cookieHeader string) (*IngestResult, error) {
	const op = "ingest url"

	url = strings.TrimSpace(url)
	if url == "" {
		return nil, precondition(op, ErrEmptyURL)
	}

	s.mu.Lock()
	prev := s.urlStatus
	gen := s.setURLStatusLocked(URLIngesting{})
	s.lastActive = s.now()
	s.mu.Unlock()

	resp, err := s.client.IngestURL(ctx, backend.IngestURLRequest{URL: url, CookieHeader: cookieHeader})
	if err != nil {
		s.mu.Lock()
		if s.urlGen == gen {
			s.urlStatus = prev
		}
		s.mu.Unlock()
		s.logger.Warn("url ingestion failed", "error", err)
		return nil, backendFailure(op, err, fallbackIngestMessage)
	}

	var status URLStatus
	if resp.ValidationOK() {
		status = URLOk{Details: resp.Validation}
	} else {
		status = urlErrorFrom(resp.Validation)
	}

	s.mu.Lock()
	s.attachLocked(resp.VideoID, resp.Extracted, "")
	s.setURLStatusLocked(status)
	s.mu.Unlock()

	s.logger.Info("media ingested from url", "video_id", resp.VideoID)

	srcURL := url
	s.recordIngestion(ctx, &models.Ingestion{
		ID:        uuid.New(),
		SessionID: s.id,
		Source:    models.IngestionSourceURL,
		VideoID:   resp.VideoID,
		SourceURL: &srcURL,
		Extracted: resp.Extracted,
		CreatedAt: s.now(),
	})

	return &IngestResult{
		VideoID:   resp.VideoID,
		Extracted: resp.Extracted,
		URLStatus: ViewURLStatus(status),
	}, nil
}

// Upload is a local file chosen for upload. A nil *Upload or a nil Body
// means no file was selected.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// CategoryChoice is the user's category input: a pick from the preset list
// or free text, depending on Mode. An empty Mode means preset.
type CategoryChoice struct {
	Mode   models.CategoryMode
	Preset string
	Custom string
}

// ResolveCategory returns the trimmed category label c selects.
func ResolveCategory(c CategoryChoice) (string, error) {
	switch c.Mode {
	case models.CategoryModeCustom:
		cat := strings.TrimSpace(c.Custom)
		if cat == "" {
			return "", ErrEmptyCategory
		}
		return cat, nil
	case models.CategoryModePreset, "":
		cat := strings.TrimSpace(c.Preset)
		if cat == "" {
			return "", ErrEmptyCategory
		}
		if !models.IsPresetCategory(cat) {
			return "", ErrUnknownCategory
		}
		return cat, nil
	default:
		return "", ErrUnknownCategory
	}
}

// UploadLocalFile streams file to the backend under the resolved category
// and attaches the returned media. Uploads carry no extracted metadata, so
// the extracted info is cleared; the URL status becomes ok with whatever
// content type and size the backend echoed.
func (s *Session) UploadLocalFile(ctx context.Context, file *Upload, choice CategoryChoice) (*IngestResult, error) {
	const op = "upload"

	if file == nil || file.Body == nil {
		return nil, precondition(op, ErrNoFile)
	}
	category, err := ResolveCategory(choice)
	if err != nil {
		return nil, precondition(op, err)
	}

	s.mu.Lock()
	s.uploads++
	s.lastActive = s.now()
	s.mu.Unlock()

	resp, err := s.client.IngestUpload(ctx, backend.UploadRequest{
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Body:        file.Body,
		Category:    category,
	})

	s.mu.Lock()
	s.uploads--
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("upload failed", "category", category, "error", err)
		return nil, backendFailure(op, err, fallbackUploadMessage)
	}

	recorded := category
	if resp.Upload != nil && resp.Upload.Category != "" {
		recorded = resp.Upload.Category
	}
	status := URLOk{Details: uploadDetails(resp.Upload)}
	s.attachLocked(resp.VideoID, nil, recorded)
	s.setURLStatusLocked(status)
	s.mu.Unlock()

	s.logger.Info("media ingested from upload", "video_id", resp.VideoID, "category", recorded)

	s.recordIngestion(ctx, &models.Ingestion{
		ID:        uuid.New(),
		SessionID: s.id,
		Source:    models.IngestionSourceUpload,
		VideoID:   resp.VideoID,
		Category:  &recorded,
		CreatedAt: s.now(),
	})

	return &IngestResult{
		VideoID:   resp.VideoID,
		Category:  &recorded,
		URLStatus: ViewURLStatus(status),
	}, nil
}

// uploadDetails synthesizes the ok status payload for an accepted upload.
func uploadDetails(info *models.UploadInfo) json.RawMessage {
	details := struct {
		OK          bool   `json:"ok"`
		ContentType string `json:"content_type,omitempty"`
		SizeBytes   int64  `json:"size_bytes,omitempty"`
	}{OK: true}
	if info != nil {
		details.ContentType = info.ContentType
		details.SizeBytes = info.SizeBytes
	}
	b, _ := json.Marshal(details)
	return b
}
