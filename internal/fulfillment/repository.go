package fulfillment

import (
	"sync"
	"time"

	"github.com/isoko-rw/marketplace-backend/internal/order"
)

type Repository interface {
	GetItem(itemID int) (order.OrderItem, error)
	// SetStatus updates the fulfillment status and stamps the matching
	// timestamp the first time that status is reached.
	SetStatus(itemID int, status order.FulfillmentStatus, at time.Time) (order.OrderItem, error)
	ListBySupplier(supplierID int, status order.FulfillmentStatus) ([]order.OrderItem, error)
	ListByOrder(orderID int) ([]order.OrderItem, error)
	// MarkOrderDelivered advances the order's delivery status and the delivery
	// record once every item has been delivered.
	MarkOrderDelivered(orderID int, at time.Time) error
}

// InMemoryRepository operates over a shared order repository so tests can
// observe checkout output flowing into fulfillment.
type InMemoryRepository struct {
	mu     sync.Mutex
	orders *order.InMemoryRepository
}

func NewInMemoryRepository(orders *order.InMemoryRepository) *InMemoryRepository {
	return &InMemoryRepository{orders: orders}
}

func (r *InMemoryRepository) GetItem(itemID int) (order.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.orders.Items {
		if item.ID == itemID {
			return item, nil
		}
	}
	return order.OrderItem{}, order.ErrItemNotFound
}

func (r *InMemoryRepository) SetStatus(itemID int, status order.FulfillmentStatus, at time.Time) (order.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orders.Items {
		item := &r.orders.Items[i]
		if item.ID != itemID {
			continue
		}
		item.FulfillmentStatus = status
		switch status {
		case order.FulfillmentConfirmed:
			if item.ConfirmedAt == nil {
				t := at
				item.ConfirmedAt = &t
			}
		case order.FulfillmentShipped:
			if item.ShippedAt == nil {
				t := at
				item.ShippedAt = &t
			}
		case order.FulfillmentDelivered:
			if item.DeliveredAt == nil {
				t := at
				item.DeliveredAt = &t
			}
		}
		return *item, nil
	}
	return order.OrderItem{}, order.ErrItemNotFound
}

func (r *InMemoryRepository) ListBySupplier(supplierID int, status order.FulfillmentStatus) ([]order.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]order.OrderItem, 0)
	for _, item := range r.orders.Items {
		if item.SupplierID == nil || *item.SupplierID != supplierID {
			continue
		}
		if status != "" && item.FulfillmentStatus != status {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *InMemoryRepository) ListByOrder(orderID int) ([]order.OrderItem, error) {
	return r.orders.ListItems(orderID)
}

func (r *InMemoryRepository) MarkOrderDelivered(orderID int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orders.Orders {
		if r.orders.Orders[i].ID == orderID {
			r.orders.Orders[i].DeliveryStatus = order.DeliveryDelivered
			r.orders.Orders[i].UpdatedAt = at
		}
	}
	for i := range r.orders.Deliveries {
		if r.orders.Deliveries[i].OrderID == orderID {
			r.orders.Deliveries[i].Status = order.DeliveryDelivered
			t := at
			r.orders.Deliveries[i].DeliveredAt = &t
			r.orders.Deliveries[i].UpdatedAt = at
		}
	}
	return nil
}
