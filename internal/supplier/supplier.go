package supplier

import (
	"time"

	"github.com/isoko-rw/marketplace-backend/internal/apperr"
)

var (
	ErrNotFound       = apperr.New(apperr.KindNotFound, "supplier not found")
	ErrSlugTaken      = apperr.New(apperr.KindConflict, "supplier slug already in use")
	ErrBadCommission  = apperr.New(apperr.KindInvalidInput, "commission rate must be between 0 and 100")
	ErrMissingName    = apperr.New(apperr.KindInvalidInput, "supplier name is required")
	ErrSupplierClosed = apperr.New(apperr.KindConflict, "supplier is deactivated")
)

// Supplier is an independent seller. CommissionRate is the percentage the
// platform retains on each of the supplier's order lines; checkout freezes it
// per line, so editing it here never changes already-created orders.
type Supplier struct {
	ID             int       `json:"supplierID"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	CommissionRate float64   `json:"commissionRate"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
