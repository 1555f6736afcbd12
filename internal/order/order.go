package order

import (
	"encoding/json"
	"time"

	"github.com/isoko-rw/marketplace-backend/internal/apperr"
)

var (
	ErrNotFound     = apperr.New(apperr.KindNotFound, "order not found")
	ErrItemNotFound = apperr.New(apperr.KindNotFound, "order item not found")
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Terminal reports whether no further payment transition is allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentPaid || s == PaymentFailed
}

type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "PENDING"
	DeliveryProcessing DeliveryStatus = "PROCESSING"
	DeliveryShipped    DeliveryStatus = "SHIPPED"
	DeliveryDelivered  DeliveryStatus = "DELIVERED"
	DeliveryCancelled  DeliveryStatus = "CANCELLED"
)

type FulfillmentStatus string

const (
	FulfillmentPending    FulfillmentStatus = "PENDING"
	FulfillmentConfirmed  FulfillmentStatus = "CONFIRMED"
	FulfillmentProcessing FulfillmentStatus = "PROCESSING"
	FulfillmentShipped    FulfillmentStatus = "SHIPPED"
	FulfillmentDelivered  FulfillmentStatus = "DELIVERED"
	FulfillmentCancelled  FulfillmentStatus = "CANCELLED"
)

// fulfillmentTransitions is the closed transition table for order items.
// CANCELLED is reachable from every non-terminal state.
var fulfillmentTransitions = map[FulfillmentStatus][]FulfillmentStatus{
	FulfillmentPending:    {FulfillmentConfirmed, FulfillmentCancelled},
	FulfillmentConfirmed:  {FulfillmentProcessing, FulfillmentCancelled},
	FulfillmentProcessing: {FulfillmentShipped, FulfillmentCancelled},
	FulfillmentShipped:    {FulfillmentDelivered, FulfillmentCancelled},
}

// CanTransition reports whether from -> to is a legal fulfillment move.
func CanTransition(from, to FulfillmentStatus) bool {
	for _, next := range fulfillmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s FulfillmentStatus) Terminal() bool {
	return s == FulfillmentDelivered || s == FulfillmentCancelled
}

// Order is created once by checkout and never deleted. The payment status is
// owned by the payment reconciler; the delivery status by fulfillment and
// delivery updates.
type Order struct {
	ID              int             `json:"orderID"`
	OrderNumber     string          `json:"orderNumber"`
	CustomerID      int             `json:"customerID"`
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerPhone   string          `json:"customerPhone"`
	ShippingAddress string          `json:"shippingAddress"`
	ItemsSnapshot   json.RawMessage `json:"itemsSnapshot,omitempty"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	DeliveryStatus  DeliveryStatus  `json:"deliveryStatus"`
	Subtotal        float64         `json:"subtotal"`
	DeliveryFee     float64         `json:"deliveryFee"`
	Discount        float64         `json:"discount"`
	Total           float64         `json:"total"`
	SupplierCount   int             `json:"supplierCount"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem binds one cart line to its supplier. CommissionRate is frozen at
// order creation; CommissionAmount is derived once and never recalculated.
type OrderItem struct {
	ID                int               `json:"orderItemID"`
	OrderID           int               `json:"orderID"`
	ProductID         int               `json:"productID"`
	ProductName       string            `json:"productName"`
	SupplierID        *int              `json:"supplierID,omitempty"`
	UnitPrice         float64           `json:"unitPrice"`
	Quantity          int               `json:"quantity"`
	TotalPrice        float64           `json:"totalPrice"`
	CommissionRate    float64           `json:"commissionRate"`
	CommissionAmount  float64           `json:"commissionAmount"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillmentStatus"`
	ConfirmedAt       *time.Time        `json:"confirmedAt,omitempty"`
	ShippedAt         *time.Time        `json:"shippedAt,omitempty"`
	DeliveredAt       *time.Time        `json:"deliveredAt,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
}

type Delivery struct {
	ID             int            `json:"deliveryID"`
	OrderID        int            `json:"orderID"`
	TrackingNumber string         `json:"trackingNumber"`
	Status         DeliveryStatus `json:"status"`
	Address        string         `json:"address"`
	DeliveredAt    *time.Time     `json:"deliveredAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
