package payout

import (
	"errors"
	"testing"
	"time"

	"github.com/isoko-rw/marketplace-backend/internal/order"
	"github.com/isoko-rw/marketplace-backend/internal/supplier"
)

func intPtr(i int) *int { return &i }

func timePtr(t time.Time) *time.Time { return &t }

var (
	periodStart = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
)

// newFixture seeds delivered items for supplier 1 inside the period, one item
// for supplier 1 outside it, and an undelivered item. Supplier 2 has nothing
// to settle; supplier 3 is inactive.
func newFixture(t *testing.T) (*Service, *InMemoryRepository, *order.InMemoryRepository) {
	t.Helper()

	inPeriod := periodStart.AddDate(0, 0, 10)
	beforePeriod := periodStart.AddDate(0, 0, -5)

	orders := order.NewInMemoryRepository(nil, []order.OrderItem{
		{ID: 1, OrderID: 1, SupplierID: intPtr(1), TotalPrice: 2000, CommissionAmount: 200,
			FulfillmentStatus: order.FulfillmentDelivered, DeliveredAt: timePtr(inPeriod)},
		{ID: 2, OrderID: 2, SupplierID: intPtr(1), TotalPrice: 500, CommissionAmount: 50,
			FulfillmentStatus: order.FulfillmentDelivered, DeliveredAt: timePtr(inPeriod)},
		{ID: 3, OrderID: 3, SupplierID: intPtr(1), TotalPrice: 900, CommissionAmount: 90,
			FulfillmentStatus: order.FulfillmentDelivered, DeliveredAt: timePtr(beforePeriod)},
		{ID: 4, OrderID: 4, SupplierID: intPtr(1), TotalPrice: 700, CommissionAmount: 70,
			FulfillmentStatus: order.FulfillmentShipped},
	}, nil)

	suppliers := supplier.NewService(supplier.NewInMemoryRepository([]supplier.Supplier{
		{ID: 1, Name: "Kigali Farms", Slug: "kigali-farms", CommissionRate: 10, Active: true},
		{ID: 2, Name: "Huye Oils", Slug: "huye-oils", CommissionRate: 10, Active: true},
		{ID: 3, Name: "Closed Shop", Slug: "closed-shop", CommissionRate: 10, Active: false},
	}))

	repo := NewInMemoryRepository(orders)
	return NewService(repo, suppliers), repo, orders
}

func TestGenerate_AggregatesDeliveredItems(t *testing.T) {
	svc, _, _ := newFixture(t)

	payouts, err := svc.Generate(periodStart, periodEnd)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	// supplier 2 has no delivered items and supplier 3 is inactive, so only
	// supplier 1 settles
	if len(payouts) != 1 {
		t.Fatalf("expected 1 payout, got %d", len(payouts))
	}

	p := payouts[0]
	if p.SupplierID != 1 {
		t.Fatalf("expected supplier 1, got %d", p.SupplierID)
	}
	if p.GrossAmount != 2500 || p.CommissionAmount != 250 || p.NetAmount != 2250 {
		t.Fatalf("unexpected amounts: gross=%v commission=%v net=%v", p.GrossAmount, p.CommissionAmount, p.NetAmount)
	}
	if p.ItemCount != 2 || len(p.OrderItemIDs) != 2 {
		t.Fatalf("expected items 1 and 2 only, got %v", p.OrderItemIDs)
	}
	for _, id := range p.OrderItemIDs {
		if id == 3 || id == 4 {
			t.Fatalf("item %d is outside the period or undelivered and must not settle", id)
		}
	}
	if p.Status != StatusPending {
		t.Fatalf("new payouts start PENDING, got %s", p.Status)
	}
}

func TestGenerate_SkipsExistingPeriod(t *testing.T) {
	svc, repo, _ := newFixture(t)

	if _, err := svc.Generate(periodStart, periodEnd); err != nil {
		t.Fatalf("first generate failed: %v", err)
	}
	payouts, err := svc.Generate(periodStart, periodEnd)
	if err != nil {
		t.Fatalf("second generate failed: %v", err)
	}
	if len(payouts) != 0 {
		t.Fatalf("re-running a period must create nothing, got %d", len(payouts))
	}
	if len(repo.Payouts) != 1 {
		t.Fatalf("expected exactly 1 stored payout, got %d", len(repo.Payouts))
	}
}

func TestGenerate_NeverSettlesAnItemTwice(t *testing.T) {
	svc, repo, orders := newFixture(t)

	if _, err := svc.Generate(periodStart, periodEnd); err != nil {
		t.Fatalf("first generate failed: %v", err)
	}

	// a late delivery lands inside the month, then an overlapping wider
	// period is generated
	late := periodStart.AddDate(0, 0, 20)
	orders.Items = append(orders.Items, order.OrderItem{
		ID: 5, OrderID: 5, SupplierID: intPtr(1), TotalPrice: 1000, CommissionAmount: 100,
		FulfillmentStatus: order.FulfillmentDelivered, DeliveredAt: timePtr(late),
	})

	widerEnd := periodEnd.AddDate(0, 1, 0)
	payouts, err := svc.Generate(periodStart, widerEnd)
	if err != nil {
		t.Fatalf("overlapping generate failed: %v", err)
	}
	if len(payouts) != 1 {
		t.Fatalf("expected 1 payout for the wider period, got %d", len(payouts))
	}
	// only the unclaimed item may settle
	if payouts[0].ItemCount != 1 || payouts[0].GrossAmount != 1000 {
		t.Fatalf("claimed items leaked into the new payout: %+v", payouts[0])
	}

	claimed := map[int64]int{}
	for _, p := range repo.Payouts {
		for _, id := range p.OrderItemIDs {
			claimed[id]++
			if claimed[id] > 1 {
				t.Fatalf("item %d appears in more than one payout", id)
			}
		}
	}
}

func TestGenerate_RejectsBadPeriod(t *testing.T) {
	svc, _, _ := newFixture(t)
	if _, err := svc.Generate(periodEnd, periodStart); !errors.Is(err, ErrBadPeriod) {
		t.Fatalf("expected ErrBadPeriod, got %v", err)
	}
}

func TestUpdateStatus_CompletionStampsPaidAt(t *testing.T) {
	svc, _, _ := newFixture(t)
	payouts, err := svc.Generate(periodStart, periodEnd)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	id := payouts[0].ID

	p, err := svc.UpdateStatus(id, StatusProcessing, "", "bank batch queued")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if p.Status != StatusProcessing || p.PaidAt != nil {
		t.Fatalf("unexpected payout after processing: %+v", p)
	}

	p, err = svc.UpdateStatus(id, StatusCompleted, "MOMO-REF-9", "")
	if err != nil {
		t.Fatalf("completion failed: %v", err)
	}
	if p.Status != StatusCompleted || p.PaidAt == nil || p.PaymentReference != "MOMO-REF-9" {
		t.Fatalf("unexpected completed payout: %+v", p)
	}
	if p.Notes != "bank batch queued" {
		t.Fatalf("notes must survive later updates, got %q", p.Notes)
	}

	if _, err := svc.UpdateStatus(id, Status("SETTLED"), "", ""); !errors.Is(err, ErrBadStatus) {
		t.Fatalf("expected ErrBadStatus, got %v", err)
	}
	if _, err := svc.UpdateStatus(999, StatusCompleted, "", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSupplierEarnings(t *testing.T) {
	svc, _, _ := newFixture(t)
	if _, err := svc.Generate(periodStart, periodEnd); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	e, err := svc.SupplierEarnings(1)
	if err != nil {
		t.Fatalf("earnings failed: %v", err)
	}
	// all delivered items count toward lifetime numbers, settled or not
	if e.TotalGross != 3400 || e.TotalCommission != 340 || e.TotalNet != 3060 {
		t.Fatalf("unexpected lifetime earnings: %+v", e)
	}
	if e.DeliveredItems != 3 {
		t.Fatalf("expected 3 delivered items, got %d", e.DeliveredItems)
	}
	if e.PendingPayouts != 2250 {
		t.Fatalf("expected pending payout total 2250, got %v", e.PendingPayouts)
	}
	if e.PaidPayouts != 0 {
		t.Fatalf("expected no paid payouts yet, got %v", e.PaidPayouts)
	}
}
