package moviebot

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind decides what the runner does with a failed unit of work.
type ErrorKind int

const (
	// KindFeedback is a user-correctable condition. The message is shown
	// to the user and nothing is escalated.
	KindFeedback ErrorKind = iota + 1
	// KindFeedbackWithCause shows a generic message to the user and
	// escalates the underlying cause.
	KindFeedbackWithCause
	// KindInternal is escalated without any user message.
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindFeedback:
		return "feedback"
	case KindFeedbackWithCause:
		return "feedback_with_cause"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	SystemCredentials = "credentials"
	SystemIMDb        = "IMDb-API"
	SystemNotion      = "Notion"
	SystemTransport   = "transport"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotImplemented = errors.New("not implemented")
)

type WorkError struct {
	Kind    ErrorKind
	Message string
	Op      string
	System  string
	Cause   error
}

func (e *WorkError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *WorkError) Unwrap() error {
	return e.Cause
}

func Feedback(message string) *WorkError {
	return &WorkError{Kind: KindFeedback, Message: message}
}

func FeedbackWithCause(message, op, system string, cause error) *WorkError {
	return &WorkError{Kind: KindFeedbackWithCause, Message: message, Op: op, System: system, Cause: cause}
}

func Internal(op, system string, cause error) *WorkError {
	return &WorkError{Kind: KindInternal, Op: op, System: system, Cause: cause}
}

// asWorkError classifies an arbitrary error returned by a unit-of-work body.
// Anything that is not already a WorkError is treated as internal.
func asWorkError(op string, err error) *WorkError {
	var we *WorkError
	if errors.As(err, &we) {
		return we
	}
	return Internal(op, "", err)
}

// RemoteStage names where a remote call broke down.
type RemoteStage string

const (
	StageTransport       RemoteStage = "transport"
	StageDecodeErrorBody RemoteStage = "decode_error_body"
	StageDecodeResponse  RemoteStage = "decode_response"
	StageSchema          RemoteStage = "schema"
)

// RemoteError is an unexpected failure talking to an external system.
type RemoteError struct {
	System string
	Op     string
	Stage  RemoteStage
	Cause  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s failed at %s: %v", e.System, e.Op, e.Stage, e.Cause)
}

func (e *RemoteError) Unwrap() error {
	return e.Cause
}

// RejectedError carries a business error reported by the provider itself.
type RejectedError struct {
	System  string
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s %s rejected: status=%d code=%s message=%s", e.System, e.Op, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s rejected: %s", e.System, e.Op, e.Message)
}

// classifyRemote maps a client error onto the taxonomy. The provider's own
// message is safe to show; everything else gets localized generic text.
func classifyRemote(t *Transcripts, err error) *WorkError {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return Feedback(rejected.Message)
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		var msg string
		switch remote.Stage {
		case StageTransport:
			msg = t.CannotReachServer(remote.System)
		case StageDecodeErrorBody:
			msg = t.ParseErrorMessageFailed(remote.System)
		default:
			msg = t.ParseResponseFailed(remote.System)
		}
		return FeedbackWithCause(msg, remote.Op, remote.System, remote.Cause)
	}
	var we *WorkError
	if errors.As(err, &we) {
		return we
	}
	return Internal("remote", "", err)
}
