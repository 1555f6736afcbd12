package supplier

import "strings"

type Service struct {
	repo Repository
}

// ServiceInterface is what other packages (checkout, payout) depend on.
type ServiceInterface interface {
	List(onlyActive bool) ([]Supplier, error)
	GetByID(id int) (Supplier, error)
	Create(s Supplier) (Supplier, error)
	Update(id int, s Supplier) (Supplier, error)
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(onlyActive bool) ([]Supplier, error) {
	return s.repo.List(onlyActive)
}

func (s *Service) GetByID(id int) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, ErrNotFound
	}
	return s.repo.GetByID(id)
}

func (s *Service) Create(sup Supplier) (Supplier, error) {
	if err := validate(&sup); err != nil {
		return Supplier{}, err
	}
	return s.repo.Create(sup)
}

func (s *Service) Update(id int, sup Supplier) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, ErrNotFound
	}
	if err := validate(&sup); err != nil {
		return Supplier{}, err
	}
	return s.repo.Update(id, sup)
}

func validate(sup *Supplier) error {
	sup.Name = strings.TrimSpace(sup.Name)
	if sup.Name == "" {
		return ErrMissingName
	}
	if sup.Slug == "" {
		sup.Slug = slugify(sup.Name)
	}
	if sup.CommissionRate < 0 || sup.CommissionRate > 100 {
		return ErrBadCommission
	}
	return nil
}

func slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), "-")
	return s
}
