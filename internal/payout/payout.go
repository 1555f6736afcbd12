package payout

import (
	"time"

	"github.com/isoko-rw/marketplace-backend/internal/apperr"
)

var (
	ErrNotFound        = apperr.New(apperr.KindNotFound, "payout not found")
	ErrDuplicatePeriod = apperr.New(apperr.KindConflict, "payout already exists for this supplier and period")
	ErrBadPeriod       = apperr.New(apperr.KindInvalidInput, "period start must be before period end")
	ErrBadStatus       = apperr.New(apperr.KindInvalidInput, "unknown payout status")
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// SupplierPayout settles one supplier over one closed period. Net is always
// gross minus commission; OrderItemIDs pins exactly which delivered lines the
// money covers, and no line may appear in two payouts.
type SupplierPayout struct {
	ID               int        `json:"payoutID"`
	SupplierID       int        `json:"supplierID"`
	PeriodStart      time.Time  `json:"periodStart"`
	PeriodEnd        time.Time  `json:"periodEnd"`
	GrossAmount      float64    `json:"grossAmount"`
	CommissionAmount float64    `json:"commissionAmount"`
	NetAmount        float64    `json:"netAmount"`
	OrderItemIDs     []int64    `json:"orderItemIDs"`
	ItemCount        int        `json:"itemCount"`
	Status           Status     `json:"status"`
	PaymentReference string     `json:"paymentReference,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	PaidAt           *time.Time `json:"paidAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Filter narrows payout listings.
type Filter struct {
	SupplierID int
	Status     Status
	From       time.Time
	To         time.Time
}

// Earnings is the read-only aggregation behind the supplier dashboard.
type Earnings struct {
	SupplierID      int     `json:"supplierID"`
	TotalGross      float64 `json:"totalGross"`
	TotalCommission float64 `json:"totalCommission"`
	TotalNet        float64 `json:"totalNet"`
	MonthGross      float64 `json:"monthGross"`
	MonthNet        float64 `json:"monthNet"`
	PendingPayouts  float64 `json:"pendingPayouts"`
	PaidPayouts     float64 `json:"paidPayouts"`
	DeliveredItems  int     `json:"deliveredItems"`
}
