package product

import (
	"time"

	"github.com/isoko-rw/marketplace-backend/internal/apperr"
)

var (
	ErrNotFound    = apperr.New(apperr.KindNotFound, "product not found")
	ErrUnavailable = apperr.New(apperr.KindInvalidInput, "product is not available")
	ErrOutOfStock  = apperr.New(apperr.KindInvalidInput, "insufficient stock")
)

// Product is a sellable item. SupplierID is nil for platform-owned inventory;
// cart grouping and commission both key off it.
type Product struct {
	ID          int       `json:"productID"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	Stock       int       `json:"stock"`
	SupplierID  *int      `json:"supplierID,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// InventoryLog is an audit entry written whenever stock changes hands; the
// checkout transaction appends one per decremented line.
type InventoryLog struct {
	ID            int       `json:"logID"`
	ProductID     int       `json:"productID"`
	Change        int       `json:"change"`
	PreviousStock int       `json:"previousStock"`
	NewStock      int       `json:"newStock"`
	Reason        string    `json:"reason"`
	Reference     string    `json:"reference,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
