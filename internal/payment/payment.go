package payment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/isoko-rw/marketplace-backend/internal/apperr"
	"github.com/isoko-rw/marketplace-backend/internal/order"
)

var (
	ErrNotFound      = apperr.New(apperr.KindNotFound, "payment not found")
	ErrOrderNotFound = apperr.New(apperr.KindNotFound, "order not found")
	ErrAlreadyPaid   = apperr.New(apperr.KindConflict, "order is already paid")
	ErrTerminal      = apperr.New(apperr.KindConflict, "payment already settled with a different outcome")
	ErrProvider      = apperr.New(apperr.KindExternalProvider, "payment provider request failed")
)

// Payment is 1:1 with an order. TransactionID is our uuid correlation key with
// the external provider; ProviderReference is what the provider assigns.
// Status is monotonic PENDING -> {PAID, FAILED}.
type Payment struct {
	ID                int                 `json:"paymentID"`
	OrderID           int                 `json:"orderID"`
	Method            string              `json:"method"`
	Provider          string              `json:"provider,omitempty"`
	PhoneNumber       string              `json:"phoneNumber,omitempty"`
	Amount            float64             `json:"amount"`
	Currency          string              `json:"currency"`
	TransactionID     string              `json:"transactionID,omitempty"`
	ProviderReference string              `json:"providerReference,omitempty"`
	Status            order.PaymentStatus `json:"status"`
	FailureReason     string              `json:"failureReason,omitempty"`
	PaidAt            *time.Time          `json:"paidAt,omitempty"`
	FailedAt          *time.Time          `json:"failedAt,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// Provider status vocabulary as delivered by the mobile-money API.
const (
	ProviderSuccessful = "SUCCESSFUL"
	ProviderFailed     = "FAILED"
	ProviderPending    = "PENDING"
)

// MapProviderStatus translates the provider vocabulary to our payment states.
// Unknown values map to PENDING so a new provider status never flips a
// payment into a terminal state by accident.
func MapProviderStatus(s string) order.PaymentStatus {
	switch s {
	case ProviderSuccessful:
		return order.PaymentPaid
	case ProviderFailed:
		return order.PaymentFailed
	default:
		return order.PaymentPending
	}
}

// ProviderResult is a status snapshot from the external provider.
type ProviderResult struct {
	Status                 string
	FinancialTransactionID string
	Reason                 string
}

// Provider abstracts the mobile-money collections API. RequestToPay starts a
// charge keyed by our referenceID; GetTransactionStatus polls it.
type Provider interface {
	RequestToPay(ctx context.Context, referenceID string, amount float64, currency, phone string) error
	GetTransactionStatus(ctx context.Context, referenceID string) (ProviderResult, error)
}

// WebhookEvent is the raw provider notification kept for audit.
type WebhookEvent struct {
	ID         int             `json:"webhookID"`
	ExternalID string          `json:"externalID"`
	Status     string          `json:"status"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"receivedAt"`
}
