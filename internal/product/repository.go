package product

import (
	"sync"
	"time"
)

type Repository interface {
	List() ([]Product, error)
	GetByID(id int) (Product, error)
	ListByIDs(ids []int) ([]Product, error)
	Create(p Product) (Product, error)
	Update(id int, p Product) (Product, error)
	ListInventoryLog(productID int) ([]InventoryLog, error)
}

// InMemoryRepository is used by service tests and by the in-memory checkout
// store.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Product
	logs    []InventoryLog
	nextID  int
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{storage: make([]Product, 0, len(seed)), nextID: 1}
	maxID := 0
	for _, p := range seed {
		r.storage = append(r.storage, p)
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	r.nextID = maxID + 1
	return r
}

func (r *InMemoryRepository) List() ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, len(r.storage))
	copy(out, r.storage)
	return out, nil
}

func (r *InMemoryRepository) GetByID(id int) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) ListByIDs(ids []int) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		for _, p := range r.storage {
			if p.ID == id {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Create(p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.storage = append(r.storage, p)
	return p, nil
}

func (r *InMemoryRepository) Update(id int, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			p.ID = id
			p.CreatedAt = r.storage[i].CreatedAt
			p.UpdatedAt = time.Now().UTC()
			r.storage[i] = p
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) ListInventoryLog(productID int) ([]InventoryLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]InventoryLog, 0)
	for _, l := range r.logs {
		if l.ProductID == productID {
			out = append(out, l)
		}
	}
	return out, nil
}

// DecrementStock applies an in-memory stock decrement with the same
// stock >= qty guard the SQL path enforces. Used by the in-memory checkout
// store in tests.
func (r *InMemoryRepository) DecrementStock(productID, qty int, reference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == productID {
			if r.storage[i].Stock < qty {
				return ErrOutOfStock
			}
			prev := r.storage[i].Stock
			r.storage[i].Stock -= qty
			r.logs = append(r.logs, InventoryLog{
				ID:            len(r.logs) + 1,
				ProductID:     productID,
				Change:        -qty,
				PreviousStock: prev,
				NewStock:      r.storage[i].Stock,
				Reason:        "ORDER",
				Reference:     reference,
				CreatedAt:     time.Now().UTC(),
			})
			return nil
		}
	}
	return ErrNotFound
}
