package supplier

import (
	"errors"
	"testing"
)

func TestCreate_SlugifiesAndValidates(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))

	s, err := svc.Create(Supplier{Name: "  Kigali Fresh Foods ", CommissionRate: 12.5, Active: true})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if s.ID == 0 {
		t.Fatal("expected an id to be assigned")
	}
	if s.Slug != "kigali-fresh-foods" {
		t.Fatalf("unexpected slug %q", s.Slug)
	}
	if s.Name != "Kigali Fresh Foods" {
		t.Fatalf("expected trimmed name, got %q", s.Name)
	}

	if _, err := svc.Create(Supplier{Name: "", CommissionRate: 10}); !errors.Is(err, ErrMissingName) {
		t.Fatalf("expected ErrMissingName, got %v", err)
	}
	if _, err := svc.Create(Supplier{Name: "X", CommissionRate: 101}); !errors.Is(err, ErrBadCommission) {
		t.Fatalf("expected ErrBadCommission for rate over 100, got %v", err)
	}
	if _, err := svc.Create(Supplier{Name: "X", CommissionRate: -1}); !errors.Is(err, ErrBadCommission) {
		t.Fatalf("expected ErrBadCommission for negative rate, got %v", err)
	}
}

func TestCreate_RejectsDuplicateSlug(t *testing.T) {
	svc := NewService(NewInMemoryRepository([]Supplier{
		{ID: 1, Name: "Kigali Farms", Slug: "kigali-farms", Active: true},
	}))

	if _, err := svc.Create(Supplier{Name: "Kigali Farms", CommissionRate: 10}); !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
}

func TestList_ActiveFilter(t *testing.T) {
	svc := NewService(NewInMemoryRepository([]Supplier{
		{ID: 1, Name: "Open", Slug: "open", Active: true},
		{ID: 2, Name: "Closed", Slug: "closed", Active: false},
	}))

	all, err := svc.List(false)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 suppliers, got %d", len(all))
	}

	active, _ := svc.List(true)
	if len(active) != 1 || active[0].ID != 1 {
		t.Fatalf("expected only the active supplier, got %+v", active)
	}
}

func TestGetByID(t *testing.T) {
	svc := NewService(NewInMemoryRepository([]Supplier{{ID: 1, Name: "A", Slug: "a", Active: true}}))

	if _, err := svc.GetByID(1); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if _, err := svc.GetByID(99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetByID(0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for id 0, got %v", err)
	}
}
