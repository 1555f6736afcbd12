package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/isoko-rw/marketplace-backend/internal/apperr"
	"github.com/isoko-rw/marketplace-backend/internal/cart"
	"github.com/isoko-rw/marketplace-backend/internal/order"
	"github.com/isoko-rw/marketplace-backend/internal/payment"
	"github.com/isoko-rw/marketplace-backend/internal/supplier"
)

// Initiator starts a mobile-money charge for a freshly created order.
// *payment.Service satisfies it.
type Initiator interface {
	Initiate(ctx context.Context, orderID int, phone, provider string) (payment.Payment, error)
}

const momoProvider = "MTN_MOMO"

// Service turns a validated cart into a financially-consistent multi-supplier
// order. The fee policy and commission snapshot are computed here; the store
// owns the transaction boundary.
type Service struct {
	carts     cart.ServiceInterface
	suppliers supplier.ServiceInterface
	store     Store
	orders    order.Repository
	payments  payment.Repository
	initiator Initiator

	deliveryFee float64
	freeAbove   float64
}

func NewService(carts cart.ServiceInterface, suppliers supplier.ServiceInterface, store Store,
	orders order.Repository, payments payment.Repository, initiator Initiator,
	deliveryFee, freeAbove float64) *Service {
	return &Service{
		carts:       carts,
		suppliers:   suppliers,
		store:       store,
		orders:      orders,
		payments:    payments,
		initiator:   initiator,
		deliveryFee: deliveryFee,
		freeAbove:   freeAbove,
	}
}

// Checkout runs the pre-checkout validation pass, builds the order draft, and
// hands it to the store as one atomic unit. The pre-check is necessary but
// not sufficient under concurrent writers; the store's conditional stock
// decrement is the actual guarantee.
func (s *Service) Checkout(ctx context.Context, customerID int, in Input) (OrderView, error) {
	if strings.TrimSpace(in.CustomerName) == "" || strings.TrimSpace(in.ShippingAddress) == "" {
		return OrderView{}, apperr.New(apperr.KindInvalidInput, "customer name and shipping address are required")
	}
	if in.PaymentMethod == "" {
		return OrderView{}, apperr.New(apperr.KindInvalidInput, "payment method is required")
	}

	crt, err := s.carts.Get(in.CartID)
	if err != nil {
		return OrderView{}, err
	}
	if issues := s.carts.Validate(crt); len(issues) > 0 {
		return OrderView{}, &CartInvalidError{Issues: issues}
	}

	totals := cart.ComputeTotals(crt, 0)
	fee := s.deliveryFee
	if totals.Subtotal >= s.freeAbove {
		fee = 0
	}

	now := time.Now().UTC()
	items := make([]order.OrderItem, 0, len(crt.Items))
	snapshots := make([]itemSnapshot, 0, len(crt.Items))
	decrements := make([]StockDecrement, 0, len(crt.Items))
	currency := "RWF"

	for _, line := range crt.Items {
		rate := 0.0
		if line.SupplierID != nil {
			sup, err := s.suppliers.GetByID(*line.SupplierID)
			if err != nil {
				return OrderView{}, err
			}
			if !sup.Active {
				return OrderView{}, supplier.ErrSupplierClosed
			}
			rate = sup.CommissionRate
		}
		totalPrice := round2(line.PriceSnapshot * float64(line.Quantity))
		items = append(items, order.OrderItem{
			ProductID:         line.ProductID,
			ProductName:       line.NameSnapshot,
			SupplierID:        line.SupplierID,
			UnitPrice:         line.PriceSnapshot,
			Quantity:          line.Quantity,
			TotalPrice:        totalPrice,
			CommissionRate:    rate,
			CommissionAmount:  round2(totalPrice * rate / 100),
			FulfillmentStatus: order.FulfillmentPending,
			CreatedAt:         now,
		})
		snapshots = append(snapshots, itemSnapshot{
			ProductID:  line.ProductID,
			Name:       line.NameSnapshot,
			UnitPrice:  line.PriceSnapshot,
			Quantity:   line.Quantity,
			TotalPrice: totalPrice,
		})
		decrements = append(decrements, StockDecrement{ProductID: line.ProductID, Quantity: line.Quantity})
		if line.Currency != "" {
			currency = line.Currency
		}
	}

	snapshotJSON, err := json.Marshal(snapshots)
	if err != nil {
		return OrderView{}, err
	}

	draft := Draft{
		Order: order.Order{
			OrderNumber:     newOrderNumber(now),
			CustomerID:      customerID,
			CustomerName:    in.CustomerName,
			CustomerEmail:   in.CustomerEmail,
			CustomerPhone:   in.CustomerPhone,
			ShippingAddress: in.ShippingAddress,
			ItemsSnapshot:   snapshotJSON,
			PaymentStatus:   order.PaymentPending,
			DeliveryStatus:  order.DeliveryPending,
			Subtotal:        totals.Subtotal,
			DeliveryFee:     fee,
			Discount:        0,
			Total:           totals.Subtotal + fee,
			SupplierCount:   totals.SupplierCount,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		Items: items,
		Payment: payment.Payment{
			Method:   in.PaymentMethod,
			Amount:   totals.Subtotal + fee,
			Currency: currency,
			Status:   order.PaymentPending,
		},
		Delivery: order.Delivery{
			TrackingNumber: newTrackingNumber(),
			Status:         order.DeliveryPending,
			Address:        in.ShippingAddress,
		},
		Decrements: decrements,
		CartID:     crt.ID,
	}

	view, err := s.store.CreateOrder(draft)
	if err != nil {
		return OrderView{}, err
	}

	if s.initiator != nil && in.MomoPhone != "" {
		if p, err := s.initiator.Initiate(ctx, view.Order.ID, in.MomoPhone, momoProvider); err != nil {
			// the order stands; the client can re-initiate or poll verify
			slog.Warn("payment initiation after checkout failed",
				"orderID", view.Order.ID, "error", err)
			if stored, lookupErr := s.payments.GetByOrderID(view.Order.ID); lookupErr == nil {
				view.Payment = stored
			}
		} else {
			view.Payment = p
		}
	}
	return view, nil
}

// GetOrderView assembles the full view for an existing order.
func (s *Service) GetOrderView(orderID int) (OrderView, error) {
	ord, err := s.orders.GetByID(orderID)
	if err != nil {
		return OrderView{}, err
	}
	items, err := s.orders.ListItems(orderID)
	if err != nil {
		return OrderView{}, err
	}
	view := OrderView{Order: ord, Items: items}
	if p, err := s.payments.GetByOrderID(orderID); err == nil {
		view.Payment = p
	}
	if d, err := s.orders.GetDelivery(orderID); err == nil {
		view.Delivery = d
	}
	return view, nil
}

// ListOrders returns a customer's orders, most recent first.
func (s *Service) ListOrders(customerID int) ([]order.Order, error) {
	return s.orders.ListByCustomer(customerID)
}

// newOrderNumber is date-stamped with a random suffix, human-readable on
// receipts and logs.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return "ORD-" + now.Format("20060102") + "-" + suffix
}

func newTrackingNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:10]
	return "TRK-" + suffix
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// IsCartInvalid extracts validation issues from a checkout error.
func IsCartInvalid(err error) ([]cart.LineIssue, bool) {
	var cie *CartInvalidError
	if errors.As(err, &cie) {
		return cie.Issues, true
	}
	return nil, false
}
