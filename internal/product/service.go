package product

type Service struct {
	repo Repository
}

// ServiceInterface is consumed by the cart and checkout packages.
type ServiceInterface interface {
	List() ([]Product, error)
	GetByID(id int) (Product, error)
	ListByIDs(ids []int) ([]Product, error)
	Create(p Product) (Product, error)
	Update(id int, p Product) (Product, error)
	ListInventoryLog(productID int) ([]InventoryLog, error)
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List() ([]Product, error) {
	return s.repo.List()
}

// GetByID returns a sellable product. Deactivated products exist in the
// repository for admin edits but are ErrUnavailable to the catalog and cart.
func (s *Service) GetByID(id int) (Product, error) {
	if id <= 0 {
		return Product{}, ErrNotFound
	}
	p, err := s.repo.GetByID(id)
	if err != nil {
		return Product{}, err
	}
	if !p.Active {
		return Product{}, ErrUnavailable
	}
	return p, nil
}

func (s *Service) ListByIDs(ids []int) ([]Product, error) {
	return s.repo.ListByIDs(ids)
}

func (s *Service) Create(p Product) (Product, error) {
	if p.Currency == "" {
		p.Currency = "RWF"
	}
	return s.repo.Create(p)
}

func (s *Service) Update(id int, p Product) (Product, error) {
	if p.Currency == "" {
		p.Currency = "RWF"
	}
	return s.repo.Update(id, p)
}

func (s *Service) ListInventoryLog(productID int) ([]InventoryLog, error) {
	return s.repo.ListInventoryLog(productID)
}
