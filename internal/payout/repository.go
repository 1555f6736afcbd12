package payout

import (
	"sync"
	"time"

	"github.com/isoko-rw/marketplace-backend/internal/order"
)

type Repository interface {
	GetByID(payoutID int) (SupplierPayout, error)
	List(filter Filter) ([]SupplierPayout, error)
	// ExistsForPeriod reports whether a payout already covers the exact
	// supplier/period pair.
	ExistsForPeriod(supplierID int, start, end time.Time) (bool, error)
	// EligibleItems returns a supplier's delivered items in the period that no
	// existing payout references yet.
	EligibleItems(supplierID int, start, end time.Time) ([]order.OrderItem, error)
	// Create persists the payout; a concurrent insert for the same
	// supplier/period surfaces as ErrDuplicatePeriod.
	Create(p SupplierPayout) (SupplierPayout, error)
	UpdateStatus(payoutID int, status Status, paymentReference, notes string, paidAt *time.Time) (SupplierPayout, error)
	Earnings(supplierID int, monthStart time.Time) (Earnings, error)
}

// InMemoryRepository runs payout aggregation over a shared order repository so
// tests can drive the full delivered-items-to-payout path without a database.
type InMemoryRepository struct {
	mu      sync.Mutex
	orders  *order.InMemoryRepository
	Payouts []SupplierPayout
	nextID  int
}

func NewInMemoryRepository(orders *order.InMemoryRepository) *InMemoryRepository {
	return &InMemoryRepository{orders: orders, nextID: 1}
}

func (r *InMemoryRepository) GetByID(payoutID int) (SupplierPayout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.Payouts {
		if p.ID == payoutID {
			return p, nil
		}
	}
	return SupplierPayout{}, ErrNotFound
}

func (r *InMemoryRepository) List(filter Filter) ([]SupplierPayout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SupplierPayout, 0)
	for _, p := range r.Payouts {
		if filter.SupplierID != 0 && p.SupplierID != filter.SupplierID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && p.PeriodEnd.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && p.PeriodStart.After(filter.To) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *InMemoryRepository) ExistsForPeriod(supplierID int, start, end time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.existsLocked(supplierID, start, end), nil
}

func (r *InMemoryRepository) existsLocked(supplierID int, start, end time.Time) bool {
	for _, p := range r.Payouts {
		if p.SupplierID == supplierID && p.PeriodStart.Equal(start) && p.PeriodEnd.Equal(end) {
			return true
		}
	}
	return false
}

func (r *InMemoryRepository) EligibleItems(supplierID int, start, end time.Time) ([]order.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	claimed := make(map[int64]bool)
	for _, p := range r.Payouts {
		for _, id := range p.OrderItemIDs {
			claimed[id] = true
		}
	}

	out := make([]order.OrderItem, 0)
	for _, item := range r.orders.Items {
		if item.SupplierID == nil || *item.SupplierID != supplierID {
			continue
		}
		if item.FulfillmentStatus != order.FulfillmentDelivered || item.DeliveredAt == nil {
			continue
		}
		if item.DeliveredAt.Before(start) || !item.DeliveredAt.Before(end) {
			continue
		}
		if claimed[int64(item.ID)] {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *InMemoryRepository) Create(p SupplierPayout) (SupplierPayout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsLocked(p.SupplierID, p.PeriodStart, p.PeriodEnd) {
		return SupplierPayout{}, ErrDuplicatePeriod
	}
	p.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.Payouts = append(r.Payouts, p)
	return p, nil
}

func (r *InMemoryRepository) UpdateStatus(payoutID int, status Status, paymentReference, notes string, paidAt *time.Time) (SupplierPayout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.Payouts {
		p := &r.Payouts[i]
		if p.ID != payoutID {
			continue
		}
		p.Status = status
		if paymentReference != "" {
			p.PaymentReference = paymentReference
		}
		if notes != "" {
			p.Notes = notes
		}
		if paidAt != nil && p.PaidAt == nil {
			t := *paidAt
			p.PaidAt = &t
		}
		p.UpdatedAt = time.Now().UTC()
		return *p, nil
	}
	return SupplierPayout{}, ErrNotFound
}

func (r *InMemoryRepository) Earnings(supplierID int, monthStart time.Time) (Earnings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := Earnings{SupplierID: supplierID}
	for _, item := range r.orders.Items {
		if item.SupplierID == nil || *item.SupplierID != supplierID {
			continue
		}
		if item.FulfillmentStatus != order.FulfillmentDelivered {
			continue
		}
		e.TotalGross += item.TotalPrice
		e.TotalCommission += item.CommissionAmount
		e.DeliveredItems++
		if item.DeliveredAt != nil && !item.DeliveredAt.Before(monthStart) {
			e.MonthGross += item.TotalPrice
			e.MonthNet += item.TotalPrice - item.CommissionAmount
		}
	}
	e.TotalNet = e.TotalGross - e.TotalCommission

	for _, p := range r.Payouts {
		if p.SupplierID != supplierID {
			continue
		}
		switch p.Status {
		case StatusPending, StatusProcessing:
			e.PendingPayouts += p.NetAmount
		case StatusCompleted:
			e.PaidPayouts += p.NetAmount
		}
	}
	return e, nil
}
