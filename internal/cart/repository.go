package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// GetOrCreate returns the owner's cart, creating an empty one on first use.
	GetOrCreate(ownerKey string) (Cart, error)
	GetByExternalID(externalID string) (Cart, error)
	UpsertItem(cartID int, item CartItem) error
	RemoveItem(cartID, productID int) error
	ClearItems(cartID int) error
}

type InMemoryRepository struct {
	mu     sync.Mutex
	carts  []Cart
	nextID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1}
}

func (r *InMemoryRepository) GetOrCreate(ownerKey string) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.carts {
		if c.OwnerKey == ownerKey {
			return c, nil
		}
	}
	now := time.Now().UTC()
	c := Cart{
		ID:         r.nextID,
		ExternalID: uuid.NewString(),
		OwnerKey:   ownerKey,
		Items:      []CartItem{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.nextID++
	r.carts = append(r.carts, c)
	return c, nil
}

func (r *InMemoryRepository) GetByExternalID(externalID string) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.carts {
		if c.ExternalID == externalID {
			return c, nil
		}
	}
	return Cart{}, ErrNotFound
}

func (r *InMemoryRepository) UpsertItem(cartID int, item CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.carts {
		if r.carts[i].ID == cartID {
			for j := range r.carts[i].Items {
				if r.carts[i].Items[j].ProductID == item.ProductID {
					item.ID = r.carts[i].Items[j].ID
					item.CartID = cartID
					r.carts[i].Items[j] = item
					r.carts[i].UpdatedAt = time.Now().UTC()
					return nil
				}
			}
			item.ID = len(r.carts[i].Items) + 1
			item.CartID = cartID
			r.carts[i].Items = append(r.carts[i].Items, item)
			r.carts[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) RemoveItem(cartID, productID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.carts {
		if r.carts[i].ID == cartID {
			for j := range r.carts[i].Items {
				if r.carts[i].Items[j].ProductID == productID {
					r.carts[i].Items = append(r.carts[i].Items[:j], r.carts[i].Items[j+1:]...)
					r.carts[i].UpdatedAt = time.Now().UTC()
					return nil
				}
			}
			return ErrItemNotFound
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) ClearItems(cartID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.carts {
		if r.carts[i].ID == cartID {
			r.carts[i].Items = []CartItem{}
			r.carts[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrNotFound
}
