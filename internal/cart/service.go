package cart

import (
	"errors"

	"github.com/isoko-rw/marketplace-backend/internal/product"
)

// Service implements the cart engine. It depends on the product service for
// availability/stock checks and for the values captured into snapshots.
type Service struct {
	repo     Repository
	products product.ServiceInterface
}

type ServiceInterface interface {
	GetOrCreate(ownerKey string) (Cart, error)
	Get(externalID string) (Cart, error)
	AddItem(externalID string, productID, qty int) (Cart, error)
	UpdateItem(externalID string, productID, qty int) (Cart, error)
	RemoveItem(externalID string, productID int) (Cart, error)
	Clear(externalID string) error
	Validate(c Cart) []LineIssue
}

func NewService(repo Repository, products product.ServiceInterface) *Service {
	return &Service{repo: repo, products: products}
}

func (s *Service) GetOrCreate(ownerKey string) (Cart, error) {
	if ownerKey == "" {
		return Cart{}, ErrNotFound
	}
	return s.repo.GetOrCreate(ownerKey)
}

func (s *Service) Get(externalID string) (Cart, error) {
	return s.repo.GetByExternalID(externalID)
}

// AddItem merges quantities when the product is already in the cart and
// refreshes the price/name snapshot to the product's current values. A line
// added once and left alone keeps its original snapshot.
func (s *Service) AddItem(externalID string, productID, qty int) (Cart, error) {
	if qty <= 0 {
		return Cart{}, ErrBadQuantity
	}
	c, err := s.repo.GetByExternalID(externalID)
	if err != nil {
		return Cart{}, err
	}

	p, err := s.products.GetByID(productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) || errors.Is(err, product.ErrUnavailable) {
			return Cart{}, ErrProductUnavailable
		}
		return Cart{}, err
	}

	existing := 0
	for _, item := range c.Items {
		if item.ProductID == productID {
			existing = item.Quantity
			break
		}
	}
	if p.Stock < existing+qty {
		return Cart{}, ErrOutOfStock
	}

	if err := s.repo.UpsertItem(c.ID, snapshotLine(p, existing+qty)); err != nil {
		return Cart{}, err
	}
	return s.repo.GetByExternalID(externalID)
}

// UpdateItem sets an absolute quantity, re-validating stock and refreshing
// the snapshot.
func (s *Service) UpdateItem(externalID string, productID, qty int) (Cart, error) {
	if qty <= 0 {
		return Cart{}, ErrBadQuantity
	}
	c, err := s.repo.GetByExternalID(externalID)
	if err != nil {
		return Cart{}, err
	}

	found := false
	for _, item := range c.Items {
		if item.ProductID == productID {
			found = true
			break
		}
	}
	if !found {
		return Cart{}, ErrItemNotFound
	}

	p, err := s.products.GetByID(productID)
	if err != nil {
		return Cart{}, ErrProductUnavailable
	}
	if p.Stock < qty {
		return Cart{}, ErrOutOfStock
	}

	if err := s.repo.UpsertItem(c.ID, snapshotLine(p, qty)); err != nil {
		return Cart{}, err
	}
	return s.repo.GetByExternalID(externalID)
}

func (s *Service) RemoveItem(externalID string, productID int) (Cart, error) {
	c, err := s.repo.GetByExternalID(externalID)
	if err != nil {
		return Cart{}, err
	}
	if err := s.repo.RemoveItem(c.ID, productID); err != nil {
		return Cart{}, err
	}
	return s.repo.GetByExternalID(externalID)
}

func (s *Service) Clear(externalID string) error {
	c, err := s.repo.GetByExternalID(externalID)
	if err != nil {
		return err
	}
	return s.repo.ClearItems(c.ID)
}

// Validate runs the pre-checkout pass: every line's product must still be
// active with stock covering the requested quantity. Returns one issue per
// failing line; an empty slice means the cart is checkout-ready.
func (s *Service) Validate(c Cart) []LineIssue {
	issues := make([]LineIssue, 0)
	if len(c.Items) == 0 {
		issues = append(issues, LineIssue{Reason: "cart is empty"})
		return issues
	}
	for _, item := range c.Items {
		p, err := s.products.GetByID(item.ProductID)
		if err != nil {
			reason := "product no longer exists"
			if errors.Is(err, product.ErrUnavailable) {
				reason = "product is no longer available"
			}
			issues = append(issues, LineIssue{ProductID: item.ProductID, Reason: reason})
			continue
		}
		if p.Stock < item.Quantity {
			issues = append(issues, LineIssue{ProductID: item.ProductID, Reason: "insufficient stock"})
		}
	}
	return issues
}

func snapshotLine(p product.Product, qty int) CartItem {
	currency := p.Currency
	if currency == "" {
		currency = "RWF"
	}
	return CartItem{
		ProductID:     p.ID,
		NameSnapshot:  p.Name,
		PriceSnapshot: p.Price,
		Quantity:      qty,
		Currency:      currency,
		SupplierID:    p.SupplierID,
	}
}
