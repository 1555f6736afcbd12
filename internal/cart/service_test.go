package cart

import (
	"errors"
	"testing"

	"github.com/isoko-rw/marketplace-backend/internal/product"
)

func newTestService(t *testing.T, seed []product.Product) (*Service, *product.InMemoryRepository) {
	t.Helper()
	products := product.NewInMemoryRepository(seed)
	svc := NewService(NewInMemoryRepository(), product.NewService(products))
	return svc, products
}

func testCart(t *testing.T, svc *Service, ownerKey string) Cart {
	t.Helper()
	c, err := svc.GetOrCreate(ownerKey)
	if err != nil {
		t.Fatalf("could not create cart: %v", err)
	}
	return c
}

func TestAddItem_SnapshotsProduct(t *testing.T) {
	svc, _ := newTestService(t, []product.Product{
		{ID: 1, Name: "Maize flour 5kg", Price: 4500, Currency: "RWF", Stock: 10, SupplierID: intPtr(3), Active: true},
	})
	c := testCart(t, svc, "user:1")

	c, err := svc.AddItem(c.ExternalID, 1, 2)
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if len(c.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(c.Items))
	}
	line := c.Items[0]
	if line.NameSnapshot != "Maize flour 5kg" || line.PriceSnapshot != 4500 || line.Quantity != 2 {
		t.Fatalf("unexpected snapshot line: %+v", line)
	}
	if line.SupplierID == nil || *line.SupplierID != 3 {
		t.Fatalf("expected supplier 3 on the line, got %v", line.SupplierID)
	}
}

func TestAddItem_MergesAndRefreshesSnapshot(t *testing.T) {
	svc, products := newTestService(t, []product.Product{
		{ID: 1, Name: "Beans 1kg", Price: 1000, Currency: "RWF", Stock: 10, Active: true},
	})
	c := testCart(t, svc, "user:1")

	if _, err := svc.AddItem(c.ExternalID, 1, 1); err != nil {
		t.Fatalf("first add failed: %v", err)
	}

	// price change between adds: the merged line carries the current price
	if _, err := products.Update(1, product.Product{Name: "Beans 1kg", Price: 1200, Currency: "RWF", Stock: 10, Active: true}); err != nil {
		t.Fatalf("product update failed: %v", err)
	}

	c, err := svc.AddItem(c.ExternalID, 1, 2)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if len(c.Items) != 1 {
		t.Fatalf("expected quantities to merge into one line, got %d lines", len(c.Items))
	}
	if c.Items[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", c.Items[0].Quantity)
	}
	if c.Items[0].PriceSnapshot != 1200 {
		t.Fatalf("expected refreshed price snapshot 1200, got %v", c.Items[0].PriceSnapshot)
	}
}

func TestAddItem_RejectsOverStock(t *testing.T) {
	svc, _ := newTestService(t, []product.Product{
		{ID: 1, Name: "Salt", Price: 300, Stock: 3, Active: true},
	})
	c := testCart(t, svc, "user:1")

	if _, err := svc.AddItem(c.ExternalID, 1, 2); err != nil {
		t.Fatalf("add within stock failed: %v", err)
	}
	// merged quantity would be 4 against stock 3
	if _, err := svc.AddItem(c.ExternalID, 1, 2); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
}

func TestAddItem_UnavailableProduct(t *testing.T) {
	svc, _ := newTestService(t, []product.Product{
		{ID: 1, Name: "Discontinued", Price: 100, Stock: 5, Active: false},
	})
	c := testCart(t, svc, "user:1")

	if _, err := svc.AddItem(c.ExternalID, 1, 1); !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("expected ErrProductUnavailable for inactive product, got %v", err)
	}
	if _, err := svc.AddItem(c.ExternalID, 99, 1); !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("expected ErrProductUnavailable for missing product, got %v", err)
	}
	if _, err := svc.AddItem(c.ExternalID, 1, 0); !errors.Is(err, ErrBadQuantity) {
		t.Fatalf("expected ErrBadQuantity, got %v", err)
	}
}

func TestUpdateItem_SetsAbsoluteQuantity(t *testing.T) {
	svc, _ := newTestService(t, []product.Product{
		{ID: 1, Name: "Rice 5kg", Price: 6000, Stock: 10, Active: true},
	})
	c := testCart(t, svc, "user:1")

	if _, err := svc.AddItem(c.ExternalID, 1, 3); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	c, err := svc.UpdateItem(c.ExternalID, 1, 1)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if c.Items[0].Quantity != 1 {
		t.Fatalf("expected absolute quantity 1, got %d", c.Items[0].Quantity)
	}

	if _, err := svc.UpdateItem(c.ExternalID, 2, 1); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound for a product not in the cart, got %v", err)
	}
}

func TestRemoveItemAndClear(t *testing.T) {
	svc, _ := newTestService(t, []product.Product{
		{ID: 1, Name: "A", Price: 100, Stock: 10, Active: true},
		{ID: 2, Name: "B", Price: 200, Stock: 10, Active: true},
	})
	c := testCart(t, svc, "user:1")

	if _, err := svc.AddItem(c.ExternalID, 1, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := svc.AddItem(c.ExternalID, 2, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	c, err := svc.RemoveItem(c.ExternalID, 1)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(c.Items) != 1 || c.Items[0].ProductID != 2 {
		t.Fatalf("unexpected items after remove: %+v", c.Items)
	}

	if err := svc.Clear(c.ExternalID); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	c, _ = svc.Get(c.ExternalID)
	if len(c.Items) != 0 {
		t.Fatalf("expected empty cart after clear, got %d items", len(c.Items))
	}
}

func TestValidate_FlagsEveryFailingLine(t *testing.T) {
	svc, products := newTestService(t, []product.Product{
		{ID: 1, Name: "A", Price: 100, Stock: 10, Active: true},
		{ID: 2, Name: "B", Price: 200, Stock: 10, Active: true},
	})
	c := testCart(t, svc, "user:1")
	if _, err := svc.AddItem(c.ExternalID, 1, 5); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := svc.AddItem(c.ExternalID, 2, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	// stock drained and product pulled after the lines were added
	if _, err := products.Update(1, product.Product{Name: "A", Price: 100, Stock: 2, Active: true}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if _, err := products.Update(2, product.Product{Name: "B", Price: 200, Stock: 10, Active: false}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	c, _ = svc.Get(c.ExternalID)
	issues := svc.Validate(c)
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d: %+v", len(issues), issues)
	}
}

func TestValidate_EmptyCart(t *testing.T) {
	svc, _ := newTestService(t, nil)
	issues := svc.Validate(Cart{})
	if len(issues) != 1 {
		t.Fatalf("expected a single empty-cart issue, got %+v", issues)
	}
}
