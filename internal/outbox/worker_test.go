package outbox

import (
	"context"
	"errors"
	"testing"
)

func TestDrain_DispatchesAndMarksSent(t *testing.T) {
	queue := NewMemoryQueue()
	if err := queue.EnqueueTx(nil, TopicOrderConfirmed, "ORD-1", map[string]int{"orderID": 1}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if err := queue.EnqueueTx(nil, TopicInvoiceRequested, "ORD-1", map[string]int{"orderID": 1}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	var seen []string
	worker := NewWorker(queue, func(_ context.Context, ev Event) error {
		seen = append(seen, ev.Topic)
		return nil
	}, 0)

	worker.Drain(context.Background())

	if len(seen) != 2 {
		t.Fatalf("expected 2 dispatched events, got %d", len(seen))
	}
	pending, _ := queue.FetchPending(10)
	if len(pending) != 0 {
		t.Fatalf("expected all events marked sent, %d still pending", len(pending))
	}
}

func TestDrain_FailedDispatchStaysPending(t *testing.T) {
	queue := NewMemoryQueue()
	_ = queue.EnqueueTx(nil, TopicPaymentSucceeded, "tx-1", nil)
	_ = queue.EnqueueTx(nil, TopicPaymentFailed, "tx-2", nil)

	worker := NewWorker(queue, func(_ context.Context, ev Event) error {
		if ev.Topic == TopicPaymentSucceeded {
			return errors.New("sms gateway down")
		}
		return nil
	}, 0)

	worker.Drain(context.Background())

	// the failed event survives for the next poll; the delivered one is gone
	pending, _ := queue.FetchPending(10)
	if len(pending) != 1 || pending[0].Topic != TopicPaymentSucceeded {
		t.Fatalf("expected only the failed event pending, got %+v", pending)
	}

	// a recovered collaborator drains it on the next pass
	ok := NewWorker(queue, func(context.Context, Event) error { return nil }, 0)
	ok.Drain(context.Background())
	pending, _ = queue.FetchPending(10)
	if len(pending) != 0 {
		t.Fatalf("expected retry to deliver the event, %d still pending", len(pending))
	}
}
