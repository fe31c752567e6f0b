package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipforge/pkg/models"
)

const fallbackJobMessage = "job failed"

// Preset parameters sent by the one-click dispatchers. The backend treats
// these literal values as part of the request contract.
var (
	ClipCutterPreset = models.ClipCutterParams{
		TargetDurationS: 40,
		Font:            "Inter",
		Platforms:       []string{"tiktok", "youtube_shorts", "instagram_reels"},
	}
	DopamineStoryPreset = models.DopamineStoryParams{
		Style:    "reddit",
		Beats:    8,
		Platform: "tiktok",
	}
	ScriptWriterPreset = models.ScriptWriterParams{
		Topic:    "unexpected twist in a normal day",
		Tone:     "fast_paced",
		MaxLines: 10,
	}
)

// PresetParams returns the fixed parameters for jobType.
func PresetParams(jobType models.JobType) (any, bool) {
	switch jobType {
	case models.JobClipCutter:
		return ClipCutterPreset, true
	case models.JobDopamineStory:
		return DopamineStoryPreset, true
	case models.JobAIScriptWriter:
		return ScriptWriterPreset, true
	default:
		return nil, false
	}
}

// CreateJob dispatches jobType against the attached media and waits for the
// backend's answer. The session is busy from just before the request is sent
// until it settles. The only errors returned are preconditions; a declined
// job or a transport failure is reported through the result envelope.
func (s *Session) CreateJob(ctx context.Context, jobType models.JobType, params any) (models.JobResult, error) {
	const op = "create job"

	if !jobType.Valid() {
		return models.JobResult{}, precondition(op, ErrUnknownJobType)
	}
	if params == nil {
		params = struct{}{}
	}

	s.mu.Lock()
	var videoID *string
	if s.videoID != "" {
		v := s.videoID
		videoID = &v
	}
	if jobType.RequiresMedia() && videoID == nil {
		s.mu.Unlock()
		return models.JobResult{}, precondition(op, ErrNoMediaAttached)
	}
	s.jobsInFlight++
	s.jobResult = nil
	s.lastActive = s.now()
	s.mu.Unlock()

	started := s.now()
	req := models.JobRequest{JobType: jobType, VideoID: videoID, Params: params}
	s.logger.Info("dispatching job", "job_type", jobType)

	var result models.JobResult
	resp, err := s.client.CreateJob(ctx, req)
	if err != nil {
		s.logger.Warn("job dispatch failed", "job_type", jobType, "error", err)
		result = transportResult(err)
	} else {
		result = classifyJobResponse(resp.StatusCode, resp.Body)
	}

	s.mu.Lock()
	s.jobsInFlight--
	r := result
	s.jobResult = &r
	s.mu.Unlock()

	s.logger.Info("job settled", "job_type", jobType, "ok", result.OK, "status", result.Status)
	s.recordJobRun(ctx, jobRunFrom(s.id, req, result, started, s.now()))

	return result, nil
}

// RunPreset dispatches jobType with its preset parameters.
func (s *Session) RunPreset(ctx context.Context, jobType models.JobType) (models.JobResult, error) {
	params, ok := PresetParams(jobType)
	if !ok {
		return models.JobResult{}, precondition("create job", ErrUnknownJobType)
	}
	return s.CreateJob(ctx, jobType, params)
}

func (s *Session) RunClipCutter(ctx context.Context) (models.JobResult, error) {
	return s.CreateJob(ctx, models.JobClipCutter, ClipCutterPreset)
}

func (s *Session) RunDopamineStory(ctx context.Context) (models.JobResult, error) {
	return s.CreateJob(ctx, models.JobDopamineStory, DopamineStoryPreset)
}

func (s *Session) RunAIScriptWriter(ctx context.Context) (models.JobResult, error) {
	return s.CreateJob(ctx, models.JobAIScriptWriter, ScriptWriterPreset)
}

// classifyJobResponse decides whether a completed job request succeeded: the
// status must be 2xx and the body must not carry a top-level error or detail.
func classifyJobResponse(status int, body json.RawMessage) models.JobResult {
	result := models.JobResult{Status: status, Body: body}

	msg, declared := declaredError(body)
	switch {
	case declared:
		result.Error = msg
	case status < 200 || status > 299:
		result.Error = fmt.Sprintf("%s: status %d", fallbackJobMessage, status)
	default:
		result.OK = true
	}
	return result
}

// declaredError looks for a non-empty top-level "error" or "detail" field.
// null, false and "" do not count.
func declaredError(body json.RawMessage) (string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", false
	}
	for _, key := range []string{"error", "detail"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		switch t := v.(type) {
		case nil:
			continue
		case bool:
			if !t {
				continue
			}
			return fallbackJobMessage, true
		case string:
			if t == "" {
				continue
			}
			return t, true
		default:
			return string(raw), true
		}
	}
	return "", false
}

// transportResult synthesizes {"error": "<failure>"} for a request that never completed.
func transportResult(err error) models.JobResult {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	return models.JobResult{Body: body, Error: err.Error()}
}

func jobRunFrom(sessionID uuid.UUID, req models.JobRequest, result models.JobResult, started, completed time.Time) *models.JobRun {
	params, err := json.Marshal(req.Params)
	if err != nil {
		params = json.RawMessage(`{}`)
	}
	run := &models.JobRun{
		ID:          uuid.New(),
		SessionID:   sessionID,
		JobType:     req.JobType,
		VideoID:     req.VideoID,
		Params:      params,
		OK:          result.OK,
		StatusCode:  result.Status,
		Result:      result.Body,
		StartedAt:   started,
		CompletedAt: completed,
	}
	if result.Error != "" {
		msg := result.Error
		run.ErrorMessage = &msg
	}
	return run
}
