// Package models contains shared data models used across the clipforge codebase.
package models

// ExtractedInfo is the descriptive metadata the backend extracts from URL-based media.
// Uploads carry none, so callers hold it as a pointer where nil means absent.
type ExtractedInfo struct {
	Container  string  `json:"container,omitempty"`
	Resolution string  `json:"resolution,omitempty"`
	Duration   float64 `json:"duration,omitempty"` // seconds
	HasAudio   bool    `json:"has_audio"`
	AudioCodec string  `json:"audio_codec,omitempty"`
	HasVideo   bool    `json:"has_video"`
	VideoCodec string  `json:"video_codec,omitempty"`
}

// CategoryMode selects how an upload category is resolved.
type CategoryMode string

const (
	CategoryModePreset CategoryMode = "preset"
	CategoryModeCustom CategoryMode = "custom"
)

// DefaultUploadCategory is preselected in preset mode.
const DefaultUploadCategory = "uncategorized"

// UploadCategories is the fixed set offered in preset mode.
var UploadCategories = []string{
	"uncategorized",
	"tutorials",
	"gaming",
	"podcast",
	"vlog",
	"education",
	"music",
	"review",
}

// IsPresetCategory reports whether c is one of UploadCategories.
func IsPresetCategory(c string) bool {
	for _, v := range UploadCategories {
		if v == c {
			return true
		}
	}
	return false
}

// UploadInfo is what the backend echoes back about an accepted upload.
type UploadInfo struct {
	Category    string `json:"category,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
}
