package models

import (
	"time"

	"github.com/google/uuid"
)

// IngestionSource identifies which ingestion path produced a media reference.
type IngestionSource string

const (
	IngestionSourceURL    IngestionSource = "url"
	IngestionSourceUpload IngestionSource = "upload"
)

// Ingestion records a successful commit of media to the backend.
type Ingestion struct {
	ID        uuid.UUID       `db:"id"         json:"id"`
	SessionID uuid.UUID       `db:"session_id" json:"session_id"`
	Source    IngestionSource `db:"source"     json:"source"`
	VideoID   string          `db:"video_id"   json:"video_id"`
	SourceURL *string         `db:"source_url" json:"source_url,omitempty"`
	Category  *string         `db:"category"   json:"category,omitempty"`
	Extracted *ExtractedInfo  `db:"extracted"  json:"extracted,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
