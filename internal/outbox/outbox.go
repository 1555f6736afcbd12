package outbox

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Topics consumed by the notification worker.
const (
	TopicOrderConfirmed   = "order.confirmed"
	TopicInvoiceRequested = "invoice.requested"
	TopicPaymentSucceeded = "payment.succeeded"
	TopicPaymentFailed    = "payment.failed"
)

// Message describes an event to enqueue; stores accept a batch so the
// enqueue happens inside the same transaction as the business write.
type Message struct {
	Topic   string
	Key     string
	Payload any
}

type Event struct {
	ID        int64           `json:"id"`
	EventID   string          `json:"eventID"`
	Topic     string          `json:"topic"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
	SentAt    *time.Time      `json:"sentAt,omitempty"`
}

// Queue is the at-least-once contract the settlement core writes into.
// EnqueueTx participates in the caller's transaction so an event only exists
// if the business write committed.
type Queue interface {
	EnqueueTx(tx *sql.Tx, topic, key string, payload any) error
	FetchPending(limit int) ([]Event, error)
	MarkSent(id int64) error
}

type PostgresQueue struct {
	db *sql.DB
}

func NewPostgresQueue(db *sql.DB) *PostgresQueue {
	return &PostgresQueue{db: db}
}

func (q *PostgresQueue) EnqueueTx(tx *sql.Tx, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO outbox ("eventID", topic, key, payload, "createdAt") VALUES ($1,$2,$3,$4,NOW())`,
		uuid.NewString(), topic, key, data)
	return err
}

func (q *PostgresQueue) FetchPending(limit int) ([]Event, error) {
	rows, err := q.db.Query(`SELECT id, "eventID", topic, key, payload, "createdAt", "sentAt"
		FROM outbox WHERE "sentAt" IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var ev Event
		var sentAt sql.NullTime
		if err := rows.Scan(&ev.ID, &ev.EventID, &ev.Topic, &ev.Key, &ev.Payload, &ev.CreatedAt, &sentAt); err != nil {
			return nil, err
		}
		if sentAt.Valid {
			ev.SentAt = &sentAt.Time
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (q *PostgresQueue) MarkSent(id int64) error {
	_, err := q.db.Exec(`UPDATE outbox SET "sentAt" = NOW() WHERE id = $1`, id)
	return err
}

// MemoryQueue records events for tests. EnqueueTx ignores the tx argument, so
// it also accepts a nil tx from in-memory stores.
type MemoryQueue struct {
	mu     sync.Mutex
	events []Event
	nextID int64
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{nextID: 1}
}

func (q *MemoryQueue) EnqueueTx(_ *sql.Tx, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, Event{
		ID:        q.nextID,
		EventID:   uuid.NewString(),
		Topic:     topic,
		Key:       key,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	})
	q.nextID++
	return nil
}

func (q *MemoryQueue) FetchPending(limit int) ([]Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Event, 0)
	for _, ev := range q.events {
		if ev.SentAt == nil {
			out = append(out, ev)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (q *MemoryQueue) MarkSent(id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.events {
		if q.events[i].ID == id {
			now := time.Now().UTC()
			q.events[i].SentAt = &now
			return nil
		}
	}
	return nil
}

// Events returns a copy of everything enqueued, for test assertions.
func (q *MemoryQueue) Events() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Event, len(q.events))
	copy(out, q.events)
	return out
}

// TopicCount counts enqueued events per topic, for test assertions.
func (q *MemoryQueue) TopicCount(topic string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, ev := range q.events {
		if ev.Topic == topic {
			n++
		}
	}
	return n
}
