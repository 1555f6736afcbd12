package payout

import (
	"log/slog"
	"math"
	"time"

	"github.com/isoko-rw/marketplace-backend/internal/supplier"
)

// SupplierLister is the slice of the supplier service payout generation needs.
type SupplierLister interface {
	List(onlyActive bool) ([]supplier.Supplier, error)
}

type Service struct {
	repo      Repository
	suppliers SupplierLister
}

func NewService(repo Repository, suppliers SupplierLister) *Service {
	return &Service{repo: repo, suppliers: suppliers}
}

// Generate builds one payout per active supplier with at least one unclaimed
// delivered item in [start, end). Suppliers with nothing to settle are
// skipped, as are supplier/period pairs that already have a payout. Amounts
// are frozen from the order items, so a commission-rate change after checkout
// never shifts a payout.
func (s *Service) Generate(start, end time.Time) ([]SupplierPayout, error) {
	if !start.Before(end) {
		return nil, ErrBadPeriod
	}

	sups, err := s.suppliers.List(true)
	if err != nil {
		return nil, err
	}

	created := make([]SupplierPayout, 0)
	for _, sup := range sups {
		exists, err := s.repo.ExistsForPeriod(sup.ID, start, end)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		items, err := s.repo.EligibleItems(sup.ID, start, end)
		if err != nil {
			return created, err
		}
		if len(items) == 0 {
			continue
		}

		p := SupplierPayout{
			SupplierID:  sup.ID,
			PeriodStart: start,
			PeriodEnd:   end,
			Status:      StatusPending,
		}
		for _, item := range items {
			p.GrossAmount += item.TotalPrice
			p.CommissionAmount += item.CommissionAmount
			p.OrderItemIDs = append(p.OrderItemIDs, int64(item.ID))
		}
		p.GrossAmount = round2(p.GrossAmount)
		p.CommissionAmount = round2(p.CommissionAmount)
		p.NetAmount = round2(p.GrossAmount - p.CommissionAmount)
		p.ItemCount = len(items)

		saved, err := s.repo.Create(p)
		if err == ErrDuplicatePeriod {
			// lost a race with a concurrent generation run
			slog.Warn("payout already generated", "supplierID", sup.ID)
			continue
		}
		if err != nil {
			return created, err
		}
		created = append(created, saved)
	}
	return created, nil
}

func (s *Service) Get(payoutID int) (SupplierPayout, error) {
	return s.repo.GetByID(payoutID)
}

func (s *Service) List(filter Filter) ([]SupplierPayout, error) {
	return s.repo.List(filter)
}

// UpdateStatus moves a payout through its settlement states. Completion
// stamps paidAt once; later updates never overwrite it.
func (s *Service) UpdateStatus(payoutID int, status Status, paymentReference, notes string) (SupplierPayout, error) {
	if !ValidStatus(status) {
		return SupplierPayout{}, ErrBadStatus
	}
	var paidAt *time.Time
	if status == StatusCompleted {
		now := time.Now().UTC()
		paidAt = &now
	}
	return s.repo.UpdateStatus(payoutID, status, paymentReference, notes, paidAt)
}

// SupplierEarnings aggregates lifetime and current-month delivered revenue
// plus pending and completed payout totals.
func (s *Service) SupplierEarnings(supplierID int) (Earnings, error) {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return s.repo.Earnings(supplierID, monthStart)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
