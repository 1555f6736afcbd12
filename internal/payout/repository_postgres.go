package payout

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/isoko-rw/marketplace-backend/internal/order"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const payoutColumns = `"payoutID", "supplierID", "periodStart", "periodEnd", "grossAmount", "commissionAmount", "netAmount", "orderItemIDs", "itemCount", status, "paymentReference", notes, "paidAt", "createdAt", "updatedAt"`

func scanPayout(row interface{ Scan(...any) error }) (SupplierPayout, error) {
	var p SupplierPayout
	var itemIDs pq.Int64Array
	var paymentRef, notes sql.NullString
	err := row.Scan(&p.ID, &p.SupplierID, &p.PeriodStart, &p.PeriodEnd, &p.GrossAmount, &p.CommissionAmount, &p.NetAmount, &itemIDs, &p.ItemCount, &p.Status, &paymentRef, &notes, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return SupplierPayout{}, err
	}
	p.OrderItemIDs = []int64(itemIDs)
	p.PaymentReference = paymentRef.String
	p.Notes = notes.String
	return p, nil
}

func (r *PostgresRepository) GetByID(payoutID int) (SupplierPayout, error) {
	p, err := scanPayout(r.db.QueryRow(`SELECT `+payoutColumns+` FROM supplier_payouts WHERE "payoutID" = $1`, payoutID))
	if err == sql.ErrNoRows {
		return SupplierPayout{}, ErrNotFound
	}
	if err != nil {
		return SupplierPayout{}, err
	}
	return p, nil
}

func (r *PostgresRepository) List(filter Filter) ([]SupplierPayout, error) {
	query := `SELECT ` + payoutColumns + ` FROM supplier_payouts WHERE 1=1`
	args := []any{}
	if filter.SupplierID != 0 {
		args = append(args, filter.SupplierID)
		query += ` AND "supplierID" = $` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += ` AND "periodEnd" >= $` + strconv.Itoa(len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += ` AND "periodStart" <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY "payoutID" DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SupplierPayout, 0)
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ExistsForPeriod(supplierID int, start, end time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM supplier_payouts WHERE "supplierID" = $1 AND "periodStart" = $2 AND "periodEnd" = $3)`, supplierID, start, end).Scan(&exists)
	return exists, err
}

// EligibleItems selects delivered items inside [start, end) that no payout has
// claimed yet. The NOT EXISTS clause is what keeps an item out of two payouts.
func (r *PostgresRepository) EligibleItems(supplierID int, start, end time.Time) ([]order.OrderItem, error) {
	rows, err := r.db.Query(`SELECT oi."orderItemID", oi."orderID", oi."productID", oi."productName", oi."supplierID", oi."unitPrice", oi.quantity, oi."totalPrice", oi."commissionRate", oi."commissionAmount", oi."fulfillmentStatus", oi."confirmedAt", oi."shippedAt", oi."deliveredAt", oi."createdAt"
		FROM order_items oi
		WHERE oi."supplierID" = $1
		  AND oi."fulfillmentStatus" = 'DELIVERED'
		  AND oi."deliveredAt" >= $2 AND oi."deliveredAt" < $3
		  AND NOT EXISTS (
			SELECT 1 FROM supplier_payouts sp WHERE oi."orderItemID" = ANY(sp."orderItemIDs")
		  )
		ORDER BY oi."orderItemID"`, supplierID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]order.OrderItem, 0)
	for rows.Next() {
		item, err := order.ScanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(p SupplierPayout) (SupplierPayout, error) {
	created, err := scanPayout(r.db.QueryRow(`INSERT INTO supplier_payouts ("supplierID", "periodStart", "periodEnd", "grossAmount", "commissionAmount", "netAmount", "orderItemIDs", "itemCount", status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+payoutColumns,
		p.SupplierID, p.PeriodStart, p.PeriodEnd, p.GrossAmount, p.CommissionAmount, p.NetAmount, pq.Array(p.OrderItemIDs), p.ItemCount, string(p.Status), p.Notes))
	if err != nil {
		if isUniqueViolation(err) {
			return SupplierPayout{}, ErrDuplicatePeriod
		}
		return SupplierPayout{}, err
	}
	return created, nil
}

func (r *PostgresRepository) UpdateStatus(payoutID int, status Status, paymentReference, notes string, paidAt *time.Time) (SupplierPayout, error) {
	p, err := scanPayout(r.db.QueryRow(`UPDATE supplier_payouts
		SET status = $2,
		    "paymentReference" = COALESCE(NULLIF($3, ''), "paymentReference"),
		    notes = COALESCE(NULLIF($4, ''), notes),
		    "paidAt" = COALESCE("paidAt", $5),
		    "updatedAt" = NOW()
		WHERE "payoutID" = $1
		RETURNING `+payoutColumns, payoutID, string(status), paymentReference, notes, paidAt))
	if err == sql.ErrNoRows {
		return SupplierPayout{}, ErrNotFound
	}
	if err != nil {
		return SupplierPayout{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Earnings(supplierID int, monthStart time.Time) (Earnings, error) {
	e := Earnings{SupplierID: supplierID}
	err := r.db.QueryRow(`SELECT
			COALESCE(SUM("totalPrice"), 0),
			COALESCE(SUM("commissionAmount"), 0),
			COALESCE(SUM("totalPrice") FILTER (WHERE "deliveredAt" >= $2), 0),
			COALESCE(SUM("totalPrice" - "commissionAmount") FILTER (WHERE "deliveredAt" >= $2), 0),
			COUNT(*)
		FROM order_items
		WHERE "supplierID" = $1 AND "fulfillmentStatus" = 'DELIVERED'`,
		supplierID, monthStart).Scan(&e.TotalGross, &e.TotalCommission, &e.MonthGross, &e.MonthNet, &e.DeliveredItems)
	if err != nil {
		return Earnings{}, err
	}
	e.TotalNet = e.TotalGross - e.TotalCommission

	err = r.db.QueryRow(`SELECT
			COALESCE(SUM("netAmount") FILTER (WHERE status IN ('PENDING', 'PROCESSING')), 0),
			COALESCE(SUM("netAmount") FILTER (WHERE status = 'COMPLETED'), 0)
		FROM supplier_payouts
		WHERE "supplierID" = $1`, supplierID).Scan(&e.PendingPayouts, &e.PaidPayouts)
	if err != nil {
		return Earnings{}, err
	}
	return e, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "23505") || strings.Contains(err.Error(), "duplicate key value")
}
