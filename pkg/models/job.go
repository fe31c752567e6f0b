package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobType names a backend processing job.
type JobType string

const (
	JobClipCutter     JobType = "clip_cutter"
	JobDopamineStory  JobType = "dopamine_story"
	JobAIScriptWriter JobType = "ai_script_writer"
)

// JobTypes lists every job type the dashboard can dispatch.
var JobTypes = []JobType{JobClipCutter, JobDopamineStory, JobAIScriptWriter}

// Valid reports whether t is a dispatchable job type.
func (t JobType) Valid() bool {
	switch t {
	case JobClipCutter, JobDopamineStory, JobAIScriptWriter:
		return true
	}
	return false
}

// RequiresMedia reports whether the job transforms attached media.
// Script writing is pure content generation and runs without it.
func (t JobType) RequiresMedia() bool {
	return t == JobClipCutter || t == JobDopamineStory
}

// JobRequest is the body sent to POST /api/jobs. VideoID is encoded as null
// when no media is attached.
type JobRequest struct {
	JobType JobType `json:"job_type"`
	VideoID *string `json:"video_id"`
	Params  any     `json:"params"`
}

// ClipCutterParams configures the clip_cutter job.
type ClipCutterParams struct {
	TargetDurationS int      `json:"target_duration_s"`
	Font            string   `json:"font"`
	Platforms       []string `json:"platforms"`
}

// DopamineStoryParams configures the dopamine_story job.
type DopamineStoryParams struct {
	Style    string `json:"style"`
	Beats    int    `json:"beats"`
	Platform string `json:"platform"`
}

// ScriptWriterParams configures the ai_script_writer job.
type ScriptWriterParams struct {
	Topic    string `json:"topic"`
	Tone     string `json:"tone"`
	MaxLines int    `json:"max_lines"`
}

// JobResult wraps the raw backend body for a dispatched job with an explicit
// success/failure discriminant. Body is always the verbatim backend JSON, or
// {"error": "..."} synthesized locally when the request never completed.
type JobResult struct {
	OK     bool            `json:"ok"`
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
	Error  string          `json:"error,omitempty"`
}

// JobRun is the persisted record of one dispatched job.
type JobRun struct {
	ID           uuid.UUID       `db:"id"            json:"id"`
	SessionID    uuid.UUID       `db:"session_id"    json:"session_id"`
	JobType      JobType         `db:"job_type"      json:"job_type"`
	VideoID      *string         `db:"video_id"      json:"video_id,omitempty"`
	Params       json.RawMessage `db:"params"        json:"params"`
	OK           bool            `db:"ok"            json:"ok"`
	StatusCode   int             `db:"status_code"   json:"status_code"`
	Result       json.RawMessage `db:"result"        json:"result"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	StartedAt    time.Time       `db:"started_at"    json:"started_at"`
	CompletedAt  time.Time       `db:"completed_at"  json:"completed_at"`
}
