package dashboard

import (
	"encoding/json"

	"github.com/kiranshivaraju/clipforge/pkg/models"
)

// URLStatus is the advisory state of the pasted URL. Exactly one variant
// holds at a time: URLIdle, URLChecking, URLIngesting, URLOk or URLError.
type URLStatus interface {
	State() string
	isURLStatus()
}

type URLIdle struct{}

type URLChecking struct{}

type URLIngesting struct{}

// URLOk carries the backend's validation details.
type URLOk struct {
	Details json.RawMessage
}

// URLError carries the reason shown to the user plus whatever details the
// backend returned.
type URLError struct {
	Reason  string
	Details json.RawMessage
}

func (URLIdle) State() string      { return "idle" }
func (URLChecking) State() string  { return "checking" }
func (URLIngesting) State() string { return "ingesting" }
func (URLOk) State() string        { return "ok" }
func (URLError) State() string     { return "error" }

func (URLIdle) isURLStatus()      {}
func (URLChecking) isURLStatus()  {}
func (URLIngesting) isURLStatus() {}
func (URLOk) isURLStatus()        {}
func (URLError) isURLStatus()     {}

const defaultInvalidReason = "Invalid URL"

// urlErrorFrom builds a URLError, taking the reason from details.reason when present.
func urlErrorFrom(details json.RawMessage) URLError {
	reason := defaultInvalidReason
	var body struct {
		Reason string `json:"reason"`
	}
	if len(details) > 0 && json.Unmarshal(details, &body) == nil && body.Reason != "" {
		reason = body.Reason
	}
	return URLError{Reason: reason, Details: details}
}

// URLStatusView is the wire form of a URLStatus.
type URLStatusView struct {
	State   string          `json:"state"`
	Reason  string          `json:"reason,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

// ViewURLStatus flattens s for JSON output.
func ViewURLStatus(s URLStatus) URLStatusView {
	switch v := s.(type) {
	case URLOk:
		return URLStatusView{State: v.State(), Details: v.Details}
	case URLError:
		return URLStatusView{State: v.State(), Reason: v.Reason, Details: v.Details}
	case nil:
		return URLStatusView{State: URLIdle{}.State()}
	default:
		return URLStatusView{State: s.State()}
	}
}

// JobState is the dispatch sub-protocol state: JobIdle, JobRunning or JobDone.
type JobState interface {
	State() string
	isJobState()
}

type JobIdle struct{}

type JobRunning struct{}

type JobDone struct {
	Result models.JobResult
}

func (JobIdle) State() string    { return "idle" }
func (JobRunning) State() string { return "running" }
func (JobDone) State() string    { return "done" }

func (JobIdle) isJobState()    {}
func (JobRunning) isJobState() {}
func (JobDone) isJobState()    {}
