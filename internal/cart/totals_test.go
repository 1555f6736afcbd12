package cart

import "testing"

func intPtr(i int) *int { return &i }

func TestComputeTotals_GroupsBySupplier(t *testing.T) {
	c := Cart{
		Items: []CartItem{
			{ProductID: 1, PriceSnapshot: 1000, Quantity: 2, SupplierID: intPtr(1)},
			{ProductID: 2, PriceSnapshot: 250, Quantity: 4, SupplierID: intPtr(1)},
			{ProductID: 3, PriceSnapshot: 500, Quantity: 1, SupplierID: intPtr(2)},
			{ProductID: 4, PriceSnapshot: 300, Quantity: 1},
		},
	}

	totals := ComputeTotals(c, 1500)

	if totals.Subtotal != 3800 {
		t.Fatalf("expected subtotal 3800, got %v", totals.Subtotal)
	}
	if totals.Total != 5300 {
		t.Fatalf("expected total 5300, got %v", totals.Total)
	}
	if totals.ItemCount != 8 {
		t.Fatalf("expected item count 8, got %d", totals.ItemCount)
	}
	if totals.SupplierCount != 3 {
		t.Fatalf("expected 3 supplier groups, got %d", totals.SupplierCount)
	}

	// groups come back sorted by supplier id; the platform group is id 0
	wantIDs := []int{PlatformGroupID, 1, 2}
	wantSubtotals := []float64{300, 3000, 500}
	for i, g := range totals.Groups {
		if g.SupplierID != wantIDs[i] {
			t.Fatalf("group %d: expected supplier %d, got %d", i, wantIDs[i], g.SupplierID)
		}
		if g.Subtotal != wantSubtotals[i] {
			t.Fatalf("group %d: expected subtotal %v, got %v", i, wantSubtotals[i], g.Subtotal)
		}
	}

	// group subtotals must add back up to the cart subtotal
	var sum float64
	for _, g := range totals.Groups {
		sum += g.Subtotal
	}
	if sum != totals.Subtotal {
		t.Fatalf("group subtotals sum to %v, want %v", sum, totals.Subtotal)
	}
}

func TestComputeTotals_EmptyCart(t *testing.T) {
	totals := ComputeTotals(Cart{}, 1500)
	if totals.Subtotal != 0 || totals.ItemCount != 0 || totals.SupplierCount != 0 {
		t.Fatalf("expected zeroed totals for an empty cart, got %+v", totals)
	}
	if totals.Total != 1500 {
		t.Fatalf("expected total to equal the delivery fee, got %v", totals.Total)
	}
}
