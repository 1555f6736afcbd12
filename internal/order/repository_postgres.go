package order

import (
	"database/sql"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const orderColumns = `"orderID", "orderNumber", "customerID", "customerName", "customerEmail", "customerPhone", "shippingAddress", "itemsSnapshot", "paymentStatus", "deliveryStatus", subtotal, "deliveryFee", discount, total, "supplierCount", "createdAt", "updatedAt"`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	var snapshot []byte
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.ShippingAddress, &snapshot, &o.PaymentStatus, &o.DeliveryStatus,
		&o.Subtotal, &o.DeliveryFee, &o.Discount, &o.Total, &o.SupplierCount, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.ItemsSnapshot = snapshot
	return o, nil
}

func (r *PostgresRepository) GetByID(id int) (Order, error) {
	o, err := scanOrder(r.db.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE "orderID" = $1`, id))
	if err == sql.ErrNoRows {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) GetByNumber(orderNumber string) (Order, error) {
	o, err := scanOrder(r.db.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE "orderNumber" = $1`, orderNumber))
	if err == sql.ErrNoRows {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) ListByCustomer(customerID int) ([]Order, error) {
	rows, err := r.db.Query(`SELECT `+orderColumns+` FROM orders WHERE "customerID" = $1 ORDER BY "orderID" DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

const itemColumns = `"orderItemID", "orderID", "productID", "productName", "supplierID", "unitPrice", quantity, "totalPrice", "commissionRate", "commissionAmount", "fulfillmentStatus", "confirmedAt", "shippedAt", "deliveredAt", "createdAt"`

func ScanItem(row interface{ Scan(...any) error }) (OrderItem, error) {
	var item OrderItem
	var supplierID sql.NullInt64
	var confirmedAt, shippedAt, deliveredAt sql.NullTime
	err := row.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &supplierID,
		&item.UnitPrice, &item.Quantity, &item.TotalPrice, &item.CommissionRate, &item.CommissionAmount,
		&item.FulfillmentStatus, &confirmedAt, &shippedAt, &deliveredAt, &item.CreatedAt)
	if err != nil {
		return OrderItem{}, err
	}
	if supplierID.Valid {
		id := int(supplierID.Int64)
		item.SupplierID = &id
	}
	if confirmedAt.Valid {
		item.ConfirmedAt = &confirmedAt.Time
	}
	if shippedAt.Valid {
		item.ShippedAt = &shippedAt.Time
	}
	if deliveredAt.Valid {
		item.DeliveredAt = &deliveredAt.Time
	}
	return item, nil
}

func (r *PostgresRepository) ListItems(orderID int) ([]OrderItem, error) {
	rows, err := r.db.Query(`SELECT `+itemColumns+` FROM order_items WHERE "orderID" = $1 ORDER BY "orderItemID"`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]OrderItem, 0)
	for rows.Next() {
		item, err := ScanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetDelivery(orderID int) (Delivery, error) {
	var d Delivery
	var deliveredAt sql.NullTime
	err := r.db.QueryRow(`SELECT "deliveryID", "orderID", "trackingNumber", status, address, "deliveredAt", "createdAt", "updatedAt"
		FROM deliveries WHERE "orderID" = $1`, orderID).
		Scan(&d.ID, &d.OrderID, &d.TrackingNumber, &d.Status, &d.Address, &deliveredAt, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return Delivery{}, ErrNotFound
	}
	if err != nil {
		return Delivery{}, err
	}
	if deliveredAt.Valid {
		d.DeliveredAt = &deliveredAt.Time
	}
	return d, nil
}
