package fulfillment

import (
	"time"

	"github.com/isoko-rw/marketplace-backend/internal/order"
)

// Service advances order items through their fulfillment lifecycle. Every
// transition is supplier-scoped: a supplier may only touch its own items.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Transition moves one item to the requested status. The timestamps recorded
// here feed payout eligibility (deliveredAt) and delivery-performance
// metrics, so they are stamped only on first reach.
func (s *Service) Transition(supplierID, itemID int, to order.FulfillmentStatus) (order.OrderItem, error) {
	item, err := s.repo.GetItem(itemID)
	if err != nil {
		return order.OrderItem{}, err
	}
	if !ownedBy(item, supplierID) {
		// report not-found rather than forbidden so suppliers cannot
		// enumerate other suppliers' item ids
		return order.OrderItem{}, ErrNotOwned
	}
	if !order.CanTransition(item.FulfillmentStatus, to) {
		return order.OrderItem{}, ErrBadTransition
	}

	now := time.Now().UTC()
	updated, err := s.repo.SetStatus(itemID, to, now)
	if err != nil {
		return order.OrderItem{}, err
	}

	if to == order.FulfillmentDelivered {
		s.maybeCompleteOrder(updated.OrderID, now)
	}
	return updated, nil
}

// ListItems returns a supplier's items, optionally filtered by status.
func (s *Service) ListItems(supplierID int, status order.FulfillmentStatus) ([]order.OrderItem, error) {
	return s.repo.ListBySupplier(supplierID, status)
}

// maybeCompleteOrder mirrors item completion onto the order-level delivery
// status once every line is delivered.
func (s *Service) maybeCompleteOrder(orderID int, at time.Time) {
	items, err := s.repo.ListByOrder(orderID)
	if err != nil {
		return
	}
	for _, item := range items {
		if item.FulfillmentStatus != order.FulfillmentDelivered {
			return
		}
	}
	_ = s.repo.MarkOrderDelivered(orderID, at)
}

// ownedBy: platform-owned items (no supplier) belong to platform operators,
// which present supplierID 0.
func ownedBy(item order.OrderItem, supplierID int) bool {
	if item.SupplierID == nil {
		return supplierID == 0
	}
	return *item.SupplierID == supplierID
}
