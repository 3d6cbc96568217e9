package moviebot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// CallbackAnswerer is implemented by transports that must acknowledge a
// button press once it has been handled.
type CallbackAnswerer interface {
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Dispatcher runs every event on its own goroutine. Events from different
// chats have no ordering relative to each other.
type Dispatcher struct {
	engine   *Engine
	answerer CallbackAnswerer
	logger   *slog.Logger
	baseCtx  context.Context
	wg       sync.WaitGroup
}

// NewDispatcher binds work to baseCtx rather than to the inbound request,
// which ends as soon as the update is acknowledged.
func NewDispatcher(baseCtx context.Context, engine *Engine, answerer CallbackAnswerer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		engine:   engine,
		answerer: answerer,
		logger:   logger,
		baseCtx:  baseCtx,
	}
}

func (d *Dispatcher) Dispatch(ev Event) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.handle(d.baseCtx, ev)
	}()
}

// Wait blocks until every dispatched event has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) handle(ctx context.Context, ev Event) {
	d.logger.Debug("dispatching event", "kind", ev.Kind, "chat_id", ev.ChatID)
	err := d.engine.Handle(ctx, ev)
	if err != nil {
		d.report(ev, err)
	}
	if ev.Kind == EventCallback && ev.CallbackID != "" && d.answerer != nil {
		if ackErr := d.answerer.AnswerCallback(ctx, ev.CallbackID); ackErr != nil {
			d.logger.Warn("answer callback failed", "chat_id", ev.ChatID, "err", ackErr)
		}
	}
}

func (d *Dispatcher) report(ev Event, err error) {
	var esc *Escalation
	if !errors.As(err, &esc) {
		d.logger.Error("unit of work failed", "chat_id", ev.ChatID, "err", err)
		return
	}
	d.logger.Error("unit of work escalated",
		"correlation_id", esc.CorrelationID,
		"chat_id", esc.ChatID,
		"op", esc.Op,
		"system", esc.System,
		"kind", esc.Kind.String(),
		"err", esc.Err,
	)
}
