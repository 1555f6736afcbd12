package payment

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/isoko-rw/marketplace-backend/internal/order"
	"github.com/isoko-rw/marketplace-backend/internal/outbox"
)

type Repository interface {
	GetByOrderID(orderID int) (Payment, error)
	GetByTransactionID(txid string) (Payment, error)
	// Initiate stores the generated transaction id and provider details on a
	// still-pending payment.
	Initiate(paymentID int, provider, phone, txid string) (Payment, error)
	// MarkFailed fails a still-pending payment after a rejected provider
	// request. A payment a webhook settled in the meantime is left untouched
	// and returned as stored.
	MarkFailed(paymentID int, reason string) (Payment, error)
	// ApplyStatus moves a PENDING payment to a terminal status and updates the
	// parent order's paymentStatus in the same transaction, enqueueing the
	// given outbox messages with it. Re-applying the current terminal status
	// is a no-op; a conflicting terminal status returns ErrTerminal.
	ApplyStatus(txid string, status order.PaymentStatus, providerRef, reason string, events []outbox.Message) (Payment, error)
	SaveWebhook(externalID, status string, payload []byte) error
}

// InMemoryRepository mirrors the Postgres guards under a mutex; tests drive
// the reconciler against it.
type InMemoryRepository struct {
	mu       sync.Mutex
	payments []Payment
	webhooks []WebhookEvent
	orders   *order.InMemoryRepository
	queue    *outbox.MemoryQueue
}

func NewInMemoryRepository(payments []Payment, orders *order.InMemoryRepository, queue *outbox.MemoryQueue) *InMemoryRepository {
	return &InMemoryRepository{payments: payments, orders: orders, queue: queue}
}

func (r *InMemoryRepository) GetByOrderID(orderID int) (Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.OrderID == orderID {
			return p, nil
		}
	}
	return Payment{}, ErrNotFound
}

func (r *InMemoryRepository) GetByTransactionID(txid string) (Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.TransactionID == txid {
			return p, nil
		}
	}
	return Payment{}, ErrNotFound
}

func (r *InMemoryRepository) Initiate(paymentID int, provider, phone, txid string) (Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.payments {
		if r.payments[i].ID == paymentID {
			r.payments[i].Provider = provider
			r.payments[i].PhoneNumber = phone
			r.payments[i].TransactionID = txid
			r.payments[i].Status = order.PaymentPending
			r.payments[i].UpdatedAt = time.Now().UTC()
			return r.payments[i], nil
		}
	}
	return Payment{}, ErrNotFound
}

func (r *InMemoryRepository) MarkFailed(paymentID int, reason string) (Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.payments {
		if r.payments[i].ID == paymentID {
			if r.payments[i].Status.Terminal() {
				return r.payments[i], nil
			}
			now := time.Now().UTC()
			r.payments[i].Status = order.PaymentFailed
			r.payments[i].FailureReason = reason
			r.payments[i].FailedAt = &now
			r.payments[i].UpdatedAt = now
			r.setOrderStatus(r.payments[i].OrderID, order.PaymentFailed)
			return r.payments[i], nil
		}
	}
	return Payment{}, ErrNotFound
}

func (r *InMemoryRepository) ApplyStatus(txid string, status order.PaymentStatus, providerRef, reason string, events []outbox.Message) (Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.payments {
		if r.payments[i].TransactionID != txid {
			continue
		}
		p := &r.payments[i]
		if p.Status.Terminal() {
			if p.Status == status {
				return *p, nil
			}
			return Payment{}, ErrTerminal
		}
		now := time.Now().UTC()
		p.Status = status
		p.ProviderReference = providerRef
		p.UpdatedAt = now
		switch status {
		case order.PaymentPaid:
			p.PaidAt = &now
		case order.PaymentFailed:
			p.FailureReason = reason
			p.FailedAt = &now
		}
		r.setOrderStatus(p.OrderID, status)
		if r.queue != nil {
			for _, ev := range events {
				_ = r.queue.EnqueueTx(nil, ev.Topic, ev.Key, ev.Payload)
			}
		}
		return *p, nil
	}
	return Payment{}, ErrNotFound
}

func (r *InMemoryRepository) setOrderStatus(orderID int, status order.PaymentStatus) {
	if r.orders == nil {
		return
	}
	for i := range r.orders.Orders {
		if r.orders.Orders[i].ID == orderID {
			r.orders.Orders[i].PaymentStatus = status
			r.orders.Orders[i].UpdatedAt = time.Now().UTC()
			return
		}
	}
}

func (r *InMemoryRepository) SaveWebhook(externalID, status string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.webhooks = append(r.webhooks, WebhookEvent{
		ID:         len(r.webhooks) + 1,
		ExternalID: externalID,
		Status:     status,
		Payload:    json.RawMessage(payload),
		ReceivedAt: time.Now().UTC(),
	})
	return nil
}

// Webhooks returns stored webhook events for test assertions.
func (r *InMemoryRepository) Webhooks() []WebhookEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]WebhookEvent, len(r.webhooks))
	copy(out, r.webhooks)
	return out
}

// Seed appends a payment row; used by tests.
func (r *InMemoryRepository) Seed(p Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = len(r.payments) + 1
	}
	r.payments = append(r.payments, p)
}
