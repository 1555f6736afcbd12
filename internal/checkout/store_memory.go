package checkout

import (
	"sync"

	"github.com/isoko-rw/marketplace-backend/internal/notify"
	"github.com/isoko-rw/marketplace-backend/internal/order"
	"github.com/isoko-rw/marketplace-backend/internal/outbox"
	"github.com/isoko-rw/marketplace-backend/internal/payment"
	"github.com/isoko-rw/marketplace-backend/internal/product"
)

// MemoryStore mirrors the Postgres store for tests: every draft either lands
// completely or not at all, with the same stock guard.
type MemoryStore struct {
	mu       sync.Mutex
	products *product.InMemoryRepository
	carts    interface{ ClearItems(cartID int) error }
	queue    *outbox.MemoryQueue

	Orders     []order.Order
	Items      []order.OrderItem
	Payments   []payment.Payment
	Deliveries []order.Delivery

	nextOrderID   int
	nextItemID    int
	nextPaymentID int
}

func NewMemoryStore(products *product.InMemoryRepository, carts interface{ ClearItems(cartID int) error }, queue *outbox.MemoryQueue) *MemoryStore {
	return &MemoryStore{
		products:      products,
		carts:         carts,
		queue:         queue,
		nextOrderID:   1,
		nextItemID:    1,
		nextPaymentID: 1,
	}
}

func (s *MemoryStore) CreateOrder(d Draft) (OrderView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// all-or-nothing: verify every decrement before applying any
	for _, dec := range d.Decrements {
		p, err := s.products.GetByID(dec.ProductID)
		if err != nil {
			return OrderView{}, err
		}
		if p.Stock < dec.Quantity {
			return OrderView{}, ErrInsufficientStock
		}
	}

	o := d.Order
	o.ID = s.nextOrderID
	s.nextOrderID++

	items := make([]order.OrderItem, 0, len(d.Items))
	for _, item := range d.Items {
		item.ID = s.nextItemID
		item.OrderID = o.ID
		s.nextItemID++
		items = append(items, item)
	}

	p := d.Payment
	p.OrderID = o.ID
	p.ID = s.nextPaymentID
	s.nextPaymentID++

	del := d.Delivery
	del.OrderID = o.ID
	del.ID = o.ID

	for _, dec := range d.Decrements {
		if err := s.products.DecrementStock(dec.ProductID, dec.Quantity, o.OrderNumber); err != nil {
			return OrderView{}, err
		}
	}
	if s.carts != nil {
		_ = s.carts.ClearItems(d.CartID)
	}

	s.Orders = append(s.Orders, o)
	s.Items = append(s.Items, items...)
	s.Payments = append(s.Payments, p)
	s.Deliveries = append(s.Deliveries, del)

	payload := notify.EventPayload{OrderID: o.ID, Phone: o.CustomerPhone, Email: o.CustomerEmail}
	_ = s.queue.EnqueueTx(nil, outbox.TopicOrderConfirmed, o.OrderNumber, payload)
	_ = s.queue.EnqueueTx(nil, outbox.TopicInvoiceRequested, o.OrderNumber, payload)

	return OrderView{Order: o, Items: items, Payment: p, Delivery: del}, nil
}
