package outbox

import (
	"context"
	"log/slog"
	"time"
)

// Dispatcher delivers one event to its collaborator. A non-nil error leaves
// the event unsent so the next poll retries it (at-least-once).
type Dispatcher func(ctx context.Context, ev Event) error

type Worker struct {
	queue    Queue
	dispatch Dispatcher
	interval time.Duration
	batch    int
}

func NewWorker(queue Queue, dispatch Dispatcher, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Worker{queue: queue, dispatch: dispatch, interval: interval, batch: 50}
}

// Run polls until ctx is cancelled. Dispatch failures are logged, never
// propagated; the core's contract is enqueue-at-least-once, not delivery.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Drain(ctx)
		}
	}
}

// Drain processes one batch of pending events.
func (w *Worker) Drain(ctx context.Context) {
	events, err := w.queue.FetchPending(w.batch)
	if err != nil {
		slog.Error("outbox fetch failed", "error", err)
		return
	}
	for _, ev := range events {
		if err := w.dispatch(ctx, ev); err != nil {
			slog.Warn("outbox dispatch failed, will retry", "topic", ev.Topic, "eventID", ev.EventID, "error", err)
			continue
		}
		if err := w.queue.MarkSent(ev.ID); err != nil {
			slog.Error("outbox mark-sent failed", "eventID", ev.EventID, "error", err)
		}
	}
}
