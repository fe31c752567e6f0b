// Package dashboard implements the media-ingestion and job-dispatch
// orchestration behind the clipforge dashboard.
//
// A Session holds the state of one browser session: the advisory URL
// status, the attached media reference and its extracted metadata, the last
// upload category, and the job dispatch state. Operations may overlap; each
// one lands its outcome in the session in whatever order responses arrive.
// The session lock is never held across a backend call.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipforge/internal/backend"
	"github.com/kiranshivaraju/clipforge/pkg/models"
)

// Recorder persists what a session did. Failures are logged and never change
// the outcome of the operation being recorded.
type Recorder interface {
	RecordJobRun(ctx context.Context, run *models.JobRun) error
	RecordIngestion(ctx context.Context, ing *models.Ingestion) error
}

// ValidationCache remembers backend verdicts for URLs that were already checked.
type ValidationCache interface {
	LookupValidation(ctx context.Context, url string) (*backend.ValidationResponse, bool, error)
	StoreValidation(ctx context.Context, url string, resp *backend.ValidationResponse) error
}

// Session is the orchestration state for one browser session.
type Session struct {
	id          uuid.UUID
	client      backend.Client
	recorder    Recorder
	validations ValidationCache
	logger      *slog.Logger
	now         func() time.Time

	mu           sync.Mutex
	urlStatus    URLStatus
	urlGen       uint64
	videoID      string
	extracted    *models.ExtractedInfo
	lastCategory string
	uploads      int
	jobsInFlight int
	jobResult    *models.JobResult
	lastActive   time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithID sets the session id. New sessions otherwise get a random one.
func WithID(id uuid.UUID) Option {
	return func(s *Session) { s.id = id }
}

func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

func WithValidationCache(c ValidationCache) Option {
	return func(s *Session) { s.validations = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a Session bound to the given backend client.
func New(client backend.Client, opts ...Option) *Session {
	s := &Session{
		id:        uuid.New(),
		client:    client,
		logger:    slog.Default(),
		now:       time.Now,
		urlStatus: URLIdle{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastActive = s.now()
	s.logger = s.logger.With("session_id", s.id)
	return s
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID { return s.id }

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	SessionID          uuid.UUID             `json:"session_id"`
	URLStatus          URLStatusView         `json:"url_status"`
	VideoID            *string               `json:"video_id"`
	Extracted          *models.ExtractedInfo `json:"extracted"`
	LastUploadCategory *string               `json:"last_upload_category"`
	Uploading          bool                  `json:"uploading"`
	Busy               bool                  `json:"busy"`
	JobState           string                `json:"job_state"`
	JobResult          *models.JobResult     `json:"job_result"`
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID: s.id,
		URLStatus: ViewURLStatus(s.urlStatus),
		Uploading: s.uploads > 0,
		Busy:      s.jobsInFlight > 0,
		JobState:  s.jobStateLocked().State(),
	}
	if s.videoID != "" {
		v := s.videoID
		snap.VideoID = &v
	}
	if s.extracted != nil {
		e := *s.extracted
		snap.Extracted = &e
	}
	if s.lastCategory != "" {
		c := s.lastCategory
		snap.LastUploadCategory = &c
	}
	if s.jobResult != nil {
		r := *s.jobResult
		snap.JobResult = &r
	}
	return snap
}

// URLStatus returns the current advisory URL status.
func (s *Session) URLStatus() URLStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.urlStatus
}

// AttachedMedia returns the attached media reference, if any.
func (s *Session) AttachedMedia() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoID, s.videoID != ""
}

// ExtractedInfo returns the metadata of the attached media, or nil.
func (s *Session) ExtractedInfo() *models.ExtractedInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.extracted == nil {
		return nil
	}
	e := *s.extracted
	return &e
}

// LastUploadCategory returns the category of the last successful upload, or "".
func (s *Session) LastUploadCategory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCategory
}

// Busy reports whether a job dispatch is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobsInFlight > 0
}

// Uploading reports whether an upload is in flight.
func (s *Session) Uploading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads > 0
}

// JobState returns the dispatch state.
func (s *Session) JobState() JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobStateLocked()
}

func (s *Session) jobStateLocked() JobState {
	switch {
	case s.jobsInFlight > 0:
		return JobRunning{}
	case s.jobResult != nil:
		return JobDone{Result: *s.jobResult}
	default:
		return JobIdle{}
	}
}

// LastActive returns when the session last ran an operation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Touch marks the session as active now.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
}

// setURLStatusLocked replaces the URL status and returns the generation of the write.
func (s *Session) setURLStatusLocked(st URLStatus) uint64 {
	s.urlGen++
	s.urlStatus = st
	return s.urlGen
}

// attachLocked replaces the attached media. Whatever was attached before is
// dropped without notice.
func (s *Session) attachLocked(videoID string, extracted *models.ExtractedInfo, category string) {
	s.videoID = videoID
	s.extracted = extracted
	s.lastCategory = category
}

func (s *Session) recordIngestion(ctx context.Context, ing *models.Ingestion) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordIngestion(context.WithoutCancel(ctx), ing); err != nil {
		s.logger.Warn("recording ingestion failed", "video_id", ing.VideoID, "error", err)
	}
}

func (s *Session) recordJobRun(ctx context.Context, run *models.JobRun) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordJobRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("recording job run failed", "job_type", run.JobType, "error", err)
	}
}
