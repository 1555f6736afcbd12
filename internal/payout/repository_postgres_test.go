package payout

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCreate_MapsUniqueViolationToDuplicatePeriod(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("INSERT INTO supplier_payouts").
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "supplier_payouts_supplierID_periodStart_periodEnd_key" (SQLSTATE 23505)`))

	_, err = repo.Create(SupplierPayout{SupplierID: 1, PeriodStart: periodStart, PeriodEnd: periodEnd, Status: StatusPending})
	if !errors.Is(err, ErrDuplicatePeriod) {
		t.Fatalf("expected ErrDuplicatePeriod, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreate_ReturnsStoredPayout(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"payoutID", "supplierID", "periodStart", "periodEnd", "grossAmount", "commissionAmount", "netAmount",
		"orderItemIDs", "itemCount", "status", "paymentReference", "notes", "paidAt", "createdAt", "updatedAt",
	}).AddRow(11, 1, periodStart, periodEnd, 2500.0, 250.0, 2250.0, []byte("{1,2}"), 2, "PENDING", nil, nil, nil, now, now)
	mock.ExpectQuery("INSERT INTO supplier_payouts").WillReturnRows(rows)

	p, err := repo.Create(SupplierPayout{
		SupplierID: 1, PeriodStart: periodStart, PeriodEnd: periodEnd,
		GrossAmount: 2500, CommissionAmount: 250, NetAmount: 2250,
		OrderItemIDs: []int64{1, 2}, ItemCount: 2, Status: StatusPending,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if p.ID != 11 || p.NetAmount != 2250 || len(p.OrderItemIDs) != 2 {
		t.Fatalf("unexpected stored payout: %+v", p)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
