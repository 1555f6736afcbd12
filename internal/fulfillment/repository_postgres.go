package fulfillment

import (
	"database/sql"
	"time"

	"github.com/isoko-rw/marketplace-backend/internal/order"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const itemColumns = `"orderItemID", "orderID", "productID", "productName", "supplierID", "unitPrice", quantity, "totalPrice", "commissionRate", "commissionAmount", "fulfillmentStatus", "confirmedAt", "shippedAt", "deliveredAt", "createdAt"`

func (r *PostgresRepository) GetItem(itemID int) (order.OrderItem, error) {
	item, err := order.ScanItem(r.db.QueryRow(`SELECT `+itemColumns+` FROM order_items WHERE "orderItemID" = $1`, itemID))
	if err == sql.ErrNoRows {
		return order.OrderItem{}, order.ErrItemNotFound
	}
	if err != nil {
		return order.OrderItem{}, err
	}
	return item, nil
}

// SetStatus uses COALESCE so each lifecycle timestamp is written only the
// first time its status is reached.
func (r *PostgresRepository) SetStatus(itemID int, status order.FulfillmentStatus, at time.Time) (order.OrderItem, error) {
	var query string
	switch status {
	case order.FulfillmentConfirmed:
		query = `UPDATE order_items SET "fulfillmentStatus" = $2, "confirmedAt" = COALESCE("confirmedAt", $3) WHERE "orderItemID" = $1 RETURNING ` + itemColumns
	case order.FulfillmentShipped:
		query = `UPDATE order_items SET "fulfillmentStatus" = $2, "shippedAt" = COALESCE("shippedAt", $3) WHERE "orderItemID" = $1 RETURNING ` + itemColumns
	case order.FulfillmentDelivered:
		query = `UPDATE order_items SET "fulfillmentStatus" = $2, "deliveredAt" = COALESCE("deliveredAt", $3) WHERE "orderItemID" = $1 RETURNING ` + itemColumns
	default:
		item, err := order.ScanItem(r.db.QueryRow(`UPDATE order_items SET "fulfillmentStatus" = $2 WHERE "orderItemID" = $1 RETURNING `+itemColumns, itemID, string(status)))
		if err == sql.ErrNoRows {
			return order.OrderItem{}, order.ErrItemNotFound
		}
		return item, err
	}

	item, err := order.ScanItem(r.db.QueryRow(query, itemID, string(status), at))
	if err == sql.ErrNoRows {
		return order.OrderItem{}, order.ErrItemNotFound
	}
	if err != nil {
		return order.OrderItem{}, err
	}
	return item, nil
}

func (r *PostgresRepository) ListBySupplier(supplierID int, status order.FulfillmentStatus) ([]order.OrderItem, error) {
	query := `SELECT ` + itemColumns + ` FROM order_items WHERE "supplierID" = $1`
	args := []any{supplierID}
	if status != "" {
		query += ` AND "fulfillmentStatus" = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY "orderItemID" DESC`

	rows, err := r.db.Query(query, args...)
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

func (r *PostgresRepository) ListByOrder(orderID int) ([]order.OrderItem, error) {
	rows, err := r.db.Query(`SELECT `+itemColumns+` FROM order_items WHERE "orderID" = $1 ORDER BY "orderItemID"`, orderID)
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

func (r *PostgresRepository) MarkOrderDelivered(orderID int, at time.Time) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE orders SET "deliveryStatus" = 'DELIVERED', "updatedAt" = NOW() WHERE "orderID" = $1`, orderID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE deliveries SET status = 'DELIVERED', "deliveredAt" = COALESCE("deliveredAt", $2), "updatedAt" = NOW() WHERE "orderID" = $1`, orderID, at); err != nil {
		return err
	}
	return tx.Commit()
}
