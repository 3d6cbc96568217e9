package moviebot

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Escalation is a failure the surrounding process must observe. It carries
// enough context to find the operation and remote system involved.
type Escalation struct {
	CorrelationID string
	ChatID        int64
	Op            string
	System        string
	Kind          ErrorKind
	Err           error
}

func (e *Escalation) Error() string {
	system := e.System
	if system == "" {
		system = "-"
	}
	return fmt.Sprintf("escalation %s (chat=%d op=%s system=%s kind=%s): %v",
		e.CorrelationID, e.ChatID, e.Op, system, e.Kind, e.Err)
}

func (e *Escalation) Unwrap() error {
	return e.Err
}

// Runner executes one unit of work and applies the failure policy. Success
// messages are the body's job; the runner only ever sends the single
// failure message a user-facing error calls for.
type Runner struct {
	messenger     Messenger
	correlationID func() string
}

func NewRunner(messenger Messenger) *Runner {
	return &Runner{
		messenger:     messenger,
		correlationID: func() string { return uuid.NewString() },
	}
}

// Run returns nil when the event is handled, including user-facing
// failures, and an *Escalation otherwise.
func (r *Runner) Run(ctx context.Context, chatID int64, op string, body func(ctx context.Context) error) error {
	err := body(ctx)
	if err == nil {
		return nil
	}
	we := asWorkError(op, err)
	if we.Op == "" {
		tagged := *we
		tagged.Op = op
		we = &tagged
	}

	switch we.Kind {
	case KindFeedback:
		if sendErr := r.notify(ctx, chatID, we.Message); sendErr != nil {
			return r.escalate(chatID, op, SystemTransport, KindInternal, sendErr)
		}
		return nil
	case KindFeedbackWithCause:
		var cause error = we
		if sendErr := r.notify(ctx, chatID, we.Message); sendErr != nil {
			cause = errors.Join(we, sendErr)
		}
		return r.escalate(chatID, we.Op, we.System, KindFeedbackWithCause, cause)
	default:
		return r.escalate(chatID, we.Op, we.System, KindInternal, we)
	}
}

func (r *Runner) notify(ctx context.Context, chatID int64, text string) error {
	return r.messenger.Send(ctx, OutboundMessage{ChatID: chatID, Text: text})
}

func (r *Runner) escalate(chatID int64, op, system string, kind ErrorKind, err error) *Escalation {
	return &Escalation{
		CorrelationID: r.correlationID(),
		ChatID:        chatID,
		Op:            op,
		System:        system,
		Kind:          kind,
		Err:           err,
	}
}
