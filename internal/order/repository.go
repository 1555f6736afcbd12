package order

import "sync"

type Repository interface {
	GetByID(id int) (Order, error)
	GetByNumber(orderNumber string) (Order, error)
	ListByCustomer(customerID int) ([]Order, error)
	ListItems(orderID int) ([]OrderItem, error)
	GetDelivery(orderID int) (Delivery, error)
}

// InMemoryRepository serves read-model tests; writes flow through the
// checkout store in production.
type InMemoryRepository struct {
	mu         sync.RWMutex
	Orders     []Order
	Items      []OrderItem
	Deliveries []Delivery
}

func NewInMemoryRepository(orders []Order, items []OrderItem, deliveries []Delivery) *InMemoryRepository {
	return &InMemoryRepository{Orders: orders, Items: items, Deliveries: deliveries}
}

func (r *InMemoryRepository) GetByID(id int) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.Orders {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) GetByNumber(orderNumber string) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.Orders {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) ListByCustomer(customerID int) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0)
	for _, o := range r.Orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) ListItems(orderID int) ([]OrderItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]OrderItem, 0)
	for _, item := range r.Items {
		if item.OrderID == orderID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) GetDelivery(orderID int) (Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.Deliveries {
		if d.OrderID == orderID {
			return d, nil
		}
	}
	return Delivery{}, ErrNotFound
}
