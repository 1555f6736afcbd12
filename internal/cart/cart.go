package cart

import (
	"time"

	"github.com/isoko-rw/marketplace-backend/internal/apperr"
)

var (
	ErrNotFound           = apperr.New(apperr.KindNotFound, "cart not found")
	ErrItemNotFound       = apperr.New(apperr.KindNotFound, "cart item not found")
	ErrBadQuantity        = apperr.New(apperr.KindInvalidInput, "quantity must be positive")
	ErrProductUnavailable = apperr.New(apperr.KindInvalidInput, "product is not available")
	ErrOutOfStock         = apperr.New(apperr.KindInvalidInput, "insufficient stock")
	ErrCartInvalid        = apperr.New(apperr.KindInvalidInput, "cart failed pre-checkout validation")
)

// Cart is short-lived: checkout deletes its items. ExternalID is the public
// handle clients use; the numeric ID stays internal.
type Cart struct {
	ID         int        `json:"-"`
	ExternalID string     `json:"cartID"`
	OwnerKey   string     `json:"ownerKey"`
	Items      []CartItem `json:"items"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// CartItem keeps the price and name captured when the line was added, not the
// live product values. SupplierID is joined in from the product at read time
// for grouping; it is not stored on the row.
type CartItem struct {
	ID            int     `json:"-"`
	CartID        int     `json:"-"`
	ProductID     int     `json:"productID"`
	NameSnapshot  string  `json:"name"`
	PriceSnapshot float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	Currency      string  `json:"currency"`
	SupplierID    *int    `json:"supplierID,omitempty"`
}

// LineIssue reports why one cart line failed pre-checkout validation.
type LineIssue struct {
	ProductID int    `json:"productID"`
	Reason    string `json:"reason"`
}
