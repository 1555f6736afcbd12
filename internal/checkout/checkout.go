package checkout

import (
	"fmt"

	"github.com/isoko-rw/marketplace-backend/internal/apperr"
	"github.com/isoko-rw/marketplace-backend/internal/cart"
	"github.com/isoko-rw/marketplace-backend/internal/order"
	"github.com/isoko-rw/marketplace-backend/internal/payment"
)

var (
	ErrInsufficientStock = apperr.New(apperr.KindInvalidInput, "insufficient stock")
)

// CartInvalidError fails the whole checkout and carries the per-line reasons
// from the pre-checkout validation pass.
type CartInvalidError struct {
	Issues []cart.LineIssue
}

func (e *CartInvalidError) Error() string {
	return fmt.Sprintf("cart failed pre-checkout validation (%d issues)", len(e.Issues))
}

func (e *CartInvalidError) Unwrap() error { return cart.ErrCartInvalid }

// Input is what the checkout caller provides alongside a validated cart.
// MomoPhone, when present, triggers a mobile-money charge for the order
// right after it is created.
type Input struct {
	CartID          string `json:"cartID"`
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	CustomerPhone   string `json:"customerPhone"`
	ShippingAddress string `json:"shippingAddress"`
	PaymentMethod   string `json:"paymentMethod"`
	MomoPhone       string `json:"momoPhone,omitempty"`
}

// OrderView is the full order returned to the caller: the order with its
// items, payment, and delivery record.
type OrderView struct {
	Order    order.Order       `json:"order"`
	Items    []order.OrderItem `json:"items"`
	Payment  payment.Payment   `json:"payment"`
	Delivery order.Delivery    `json:"delivery"`
}

// StockDecrement is one conditional stock write inside the transaction.
type StockDecrement struct {
	ProductID int
	Quantity  int
}

// Draft is everything the store persists as one atomic unit.
type Draft struct {
	Order      order.Order
	Items      []order.OrderItem
	Payment    payment.Payment
	Delivery   order.Delivery
	Decrements []StockDecrement
	CartID     int
}

// Store persists a draft atomically: every row lands or none do. A stock
// decrement that cannot be satisfied fails the whole unit with
// ErrInsufficientStock.
type Store interface {
	CreateOrder(d Draft) (OrderView, error)
}

// itemSnapshot is the denormalized receipt line kept on the order row. It is
// a projection generated once at order creation, never a second source of
// truth.
type itemSnapshot struct {
	ProductID  int     `json:"productID"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unitPrice"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"totalPrice"`
}
