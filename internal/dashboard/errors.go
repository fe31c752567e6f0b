package dashboard

import (
	"errors"
	"fmt"

	"github.com/kiranshivaraju/clipforge/internal/backend"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// KindPrecondition failures are detected before any request is sent.
	KindPrecondition Kind = iota + 1
	// KindDeclined means the backend answered but refused the request.
	KindDeclined
	// KindTransport covers unreachable backends, timeouts and malformed responses.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindDeclined:
		return "declined"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Precondition sentinels.
var (
	ErrEmptyURL        = errors.New("url is empty")
	ErrNoFile          = errors.New("no file selected")
	ErrEmptyCategory   = errors.New("upload category is empty")
	ErrUnknownCategory = errors.New("upload category is not a preset")
	ErrNoMediaAttached = errors.New("no media attached")
	ErrUnknownJobType  = errors.New("unknown job type")
)

// preconditionMessages is what a user is shown for each precondition sentinel.
var preconditionMessages = map[error]string{
	ErrEmptyURL:        "Paste a YouTube/video URL first",
	ErrNoFile:          "Choose a file to upload first",
	ErrEmptyCategory:   "Pick a category or type one before uploading",
	ErrUnknownCategory: "Pick one of the listed categories or switch to a custom one",
	ErrNoMediaAttached: "Use Video first to attach the media",
	ErrUnknownJobType:  "Unknown job type",
}

const (
	fallbackIngestMessage = "Failed to ingest"
	fallbackUploadMessage = "Upload failed"
)

// Error is the typed failure returned by Session operations. Message is safe
// to show to a user; Err keeps the underlying cause for errors.Is / errors.As.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or 0 if err did not come from a Session.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

func precondition(op string, sentinel error) *Error {
	msg, ok := preconditionMessages[sentinel]
	if !ok {
		msg = sentinel.Error()
	}
	return &Error{Kind: KindPrecondition, Op: op, Message: msg, Err: sentinel}
}

// backendFailure converts a backend client error into a typed Error, using
// the backend's own detail when it sent one and fallback otherwise.
func backendFailure(op string, err error, fallback string) *Error {
	var declined *backend.DeclinedError
	if errors.As(err, &declined) {
		msg := declined.Detail
		if msg == "" {
			msg = fallback
		}
		return &Error{Kind: KindDeclined, Op: op, Message: msg, Err: err}
	}
	return &Error{Kind: KindTransport, Op: op, Message: err.Error(), Err: err}
}
