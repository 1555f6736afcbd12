package supplier

import (
	"strings"
	"sync"
	"time"
)

type Repository interface {
	List(onlyActive bool) ([]Supplier, error)
	GetByID(id int) (Supplier, error)
	GetBySlug(slug string) (Supplier, error)
	Create(s Supplier) (Supplier, error)
	Update(id int, s Supplier) (Supplier, error)
}

// InMemoryRepository backs service tests and local scenarios.
type InMemoryRepository struct {
	mu       sync.RWMutex
	storage  []Supplier
	nextID   int
}

func NewInMemoryRepository(seed []Supplier) *InMemoryRepository {
	r := &InMemoryRepository{storage: make([]Supplier, 0, len(seed)), nextID: 1}
	maxID := 0
	for _, s := range seed {
		r.storage = append(r.storage, s)
		if s.ID > maxID {
			maxID = s.ID
		}
	}
	r.nextID = maxID + 1
	return r
}

func (r *InMemoryRepository) List(onlyActive bool) ([]Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Supplier, 0, len(r.storage))
	for _, s := range r.storage {
		if onlyActive && !s.Active {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *InMemoryRepository) GetByID(id int) (Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.storage {
		if s.ID == id {
			return s, nil
		}
	}
	return Supplier{}, ErrNotFound
}

func (r *InMemoryRepository) GetBySlug(slug string) (Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.storage {
		if strings.EqualFold(s.Slug, slug) {
			return s, nil
		}
	}
	return Supplier{}, ErrNotFound
}

func (r *InMemoryRepository) Create(s Supplier) (Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.storage {
		if strings.EqualFold(existing.Slug, s.Slug) {
			return Supplier{}, ErrSlugTaken
		}
	}
	if s.ID == 0 {
		s.ID = r.nextID
		r.nextID++
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	r.storage = append(r.storage, s)
	return s, nil
}

func (r *InMemoryRepository) Update(id int, s Supplier) (Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			s.ID = id
			s.CreatedAt = r.storage[i].CreatedAt
			s.UpdatedAt = time.Now().UTC()
			r.storage[i] = s
			return s, nil
		}
	}
	return Supplier{}, ErrNotFound
}
