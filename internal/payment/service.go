package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/isoko-rw/marketplace-backend/internal/apperr"
	"github.com/isoko-rw/marketplace-backend/internal/notify"
	"github.com/isoko-rw/marketplace-backend/internal/order"
	"github.com/isoko-rw/marketplace-backend/internal/outbox"
)

// Service is the payment reconciler. Webhook pushes and verify polls converge
// on applyStatus, so there is exactly one code path that settles a payment.
type Service struct {
	repo     Repository
	orders   order.Repository
	provider Provider

	// callTimeout bounds every external provider call; a timeout leaves the
	// payment PENDING for later verify polling.
	callTimeout time.Duration
}

func NewService(repo Repository, orders order.Repository, provider Provider) *Service {
	return &Service{repo: repo, orders: orders, provider: provider, callTimeout: 30 * time.Second}
}

// Initiate starts a mobile-money charge for a pending order payment.
func (s *Service) Initiate(ctx context.Context, orderID int, phone, providerName string) (Payment, error) {
	ord, err := s.orders.GetByID(orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return Payment{}, ErrOrderNotFound
		}
		return Payment{}, err
	}

	p, err := s.repo.GetByOrderID(orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Payment{}, apperr.New(apperr.KindNotFound, "payment record missing for order")
		}
		return Payment{}, err
	}
	if p.Status == order.PaymentPaid {
		return Payment{}, ErrAlreadyPaid
	}
	if p.Status == order.PaymentFailed {
		return Payment{}, ErrTerminal
	}

	txid := uuid.NewString()
	p, err = s.repo.Initiate(p.ID, providerName, phone, txid)
	if err != nil {
		return Payment{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	if err := s.provider.RequestToPay(callCtx, txid, ord.Total, p.Currency, phone); err != nil {
		if isTimeout(err) {
			// the charge may still land; leave PENDING for verify polling
			slog.Warn("provider request-to-pay timed out, leaving payment pending",
				"orderID", orderID, "transactionID", txid)
			return p, fmt.Errorf("%w: request timed out: %v", ErrProvider, err)
		}
		if _, markErr := s.repo.MarkFailed(p.ID, err.Error()); markErr != nil {
			slog.Error("could not mark payment failed after provider error",
				"paymentID", p.ID, "error", markErr)
		}
		return Payment{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return p, nil
}

// WebhookRequest carries the fields of the provider notification the core
// depends on; Raw keeps the untouched payload for the audit trail.
type WebhookRequest struct {
	ExternalID             string
	Status                 string
	FinancialTransactionID string
	Reason                 string
	Raw                    []byte
}

// HandleWebhook applies a provider push notification. Callers must always
// acknowledge the provider regardless of the returned error; the error exists
// for logging and tests.
func (s *Service) HandleWebhook(ctx context.Context, req WebhookRequest) (Payment, error) {
	if err := s.repo.SaveWebhook(req.ExternalID, req.Status, req.Raw); err != nil {
		slog.Error("could not persist webhook payload", "externalID", req.ExternalID, "error", err)
	}

	p, err := s.repo.GetByTransactionID(req.ExternalID)
	if err != nil {
		slog.Warn("webhook for unknown transaction dropped", "externalID", req.ExternalID, "status", req.Status)
		return Payment{}, ErrNotFound
	}

	status := MapProviderStatus(req.Status)
	if status == order.PaymentPending {
		// PENDING -> PENDING is a harmless no-op
		return p, nil
	}
	return s.apply(p, status, req.FinancialTransactionID, req.Reason)
}

// Verify returns the stored status for terminal payments and otherwise polls
// the provider, settling through the same path as the webhook.
func (s *Service) Verify(ctx context.Context, txid string) (Payment, error) {
	p, err := s.repo.GetByTransactionID(txid)
	if err != nil {
		return Payment{}, err
	}
	if p.Status.Terminal() {
		return p, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	res, err := s.provider.GetTransactionStatus(callCtx, txid)
	if err != nil {
		return p, fmt.Errorf("%w: status check failed: %v", ErrProvider, err)
	}

	status := MapProviderStatus(res.Status)
	if status == order.PaymentPending {
		return p, nil
	}
	return s.apply(p, status, res.FinancialTransactionID, res.Reason)
}

func (s *Service) apply(p Payment, status order.PaymentStatus, providerRef, reason string) (Payment, error) {
	events := s.eventsFor(p, status, reason)
	updated, err := s.repo.ApplyStatus(p.TransactionID, status, providerRef, reason, events)
	if err != nil {
		if errors.Is(err, ErrTerminal) {
			slog.Warn("conflicting terminal status dropped",
				"transactionID", p.TransactionID, "stored", p.Status, "incoming", status)
		}
		return Payment{}, err
	}
	return updated, nil
}

// eventsFor builds the side-effect messages enqueued atomically with the
// status write. Idempotent re-deliveries never reach this point twice with an
// applied write, so side effects fire at most once per settlement.
func (s *Service) eventsFor(p Payment, status order.PaymentStatus, reason string) []outbox.Message {
	payload := notify.EventPayload{OrderID: p.OrderID, Phone: p.PhoneNumber, Reason: reason}
	if ord, err := s.orders.GetByID(p.OrderID); err == nil {
		payload.Email = ord.CustomerEmail
		if payload.Phone == "" {
			payload.Phone = ord.CustomerPhone
		}
	}
	switch status {
	case order.PaymentPaid:
		return []outbox.Message{{Topic: outbox.TopicPaymentSucceeded, Key: p.TransactionID, Payload: payload}}
	case order.PaymentFailed:
		return []outbox.Message{{Topic: outbox.TopicPaymentFailed, Key: p.TransactionID, Payload: payload}}
	default:
		return nil
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// GetByOrderID exposes the payment row for order views.
func (s *Service) GetByOrderID(orderID int) (Payment, error) {
	return s.repo.GetByOrderID(orderID)
}

// decodeWebhook parses a raw provider payload into a WebhookRequest.
func decodeWebhook(raw []byte) (WebhookRequest, error) {
	var body struct {
		ExternalID             string `json:"externalId"`
		Status                 string `json:"status"`
		FinancialTransactionID string `json:"financialTransactionId"`
		Reason                 string `json:"reason"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return WebhookRequest{}, err
	}
	return WebhookRequest{
		ExternalID:             body.ExternalID,
		Status:                 body.Status,
		FinancialTransactionID: body.FinancialTransactionID,
		Reason:                 body.Reason,
		Raw:                    raw,
	}, nil
}
