package checkout

import (
	"database/sql"

	"github.com/isoko-rw/marketplace-backend/internal/notify"
	"github.com/isoko-rw/marketplace-backend/internal/order"
	"github.com/isoko-rw/marketplace-backend/internal/outbox"
)

// PostgresStore is the transaction boundary of checkout: one Begin/Commit
// around the order, its items, payment, delivery, stock decrements, audit
// entries, cart cleanup, and outbox enqueue.
type PostgresStore struct {
	db    *sql.DB
	queue outbox.Queue
}

func NewPostgresStore(db *sql.DB, queue outbox.Queue) *PostgresStore {
	return &PostgresStore{db: db, queue: queue}
}

func (s *PostgresStore) CreateOrder(d Draft) (OrderView, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return OrderView{}, err
	}
	defer tx.Rollback()

	view := OrderView{}

	o := d.Order
	err = tx.QueryRow(`INSERT INTO orders ("orderNumber", "customerID", "customerName", "customerEmail", "customerPhone", "shippingAddress", "itemsSnapshot", "paymentStatus", "deliveryStatus", subtotal, "deliveryFee", discount, total, "supplierCount", "createdAt", "updatedAt")
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$15)
        RETURNING "orderID", "createdAt", "updatedAt"`,
		o.OrderNumber, o.CustomerID, o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.ShippingAddress,
		[]byte(o.ItemsSnapshot), string(o.PaymentStatus), string(o.DeliveryStatus),
		o.Subtotal, o.DeliveryFee, o.Discount, o.Total, o.SupplierCount, o.CreatedAt).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return OrderView{}, err
	}
	view.Order = o

	view.Items = make([]order.OrderItem, 0, len(d.Items))
	for _, item := range d.Items {
		item.OrderID = o.ID
		var supplierID any
		if item.SupplierID != nil {
			supplierID = *item.SupplierID
		}
		err = tx.QueryRow(`INSERT INTO order_items ("orderID", "productID", "productName", "supplierID", "unitPrice", quantity, "totalPrice", "commissionRate", "commissionAmount", "fulfillmentStatus", "createdAt")
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
            RETURNING "orderItemID"`,
			o.ID, item.ProductID, item.ProductName, supplierID, item.UnitPrice, item.Quantity,
			item.TotalPrice, item.CommissionRate, item.CommissionAmount, string(item.FulfillmentStatus), item.CreatedAt).
			Scan(&item.ID)
		if err != nil {
			return OrderView{}, err
		}
		view.Items = append(view.Items, item)
	}

	p := d.Payment
	p.OrderID = o.ID
	err = tx.QueryRow(`INSERT INTO payments ("orderID", method, amount, currency, status, "createdAt", "updatedAt")
        VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
        RETURNING "paymentID", "createdAt", "updatedAt"`,
		o.ID, p.Method, p.Amount, p.Currency, string(p.Status)).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return OrderView{}, err
	}
	view.Payment = p

	del := d.Delivery
	del.OrderID = o.ID
	err = tx.QueryRow(`INSERT INTO deliveries ("orderID", "trackingNumber", status, address, "createdAt", "updatedAt")
        VALUES ($1,$2,$3,$4,NOW(),NOW())
        RETURNING "deliveryID", "createdAt", "updatedAt"`,
		o.ID, del.TrackingNumber, string(del.Status), del.Address).
		Scan(&del.ID, &del.CreatedAt, &del.UpdatedAt)
	if err != nil {
		return OrderView{}, err
	}
	view.Delivery = del

	// the stock >= qty predicate re-validates inside the transaction; a
	// concurrent checkout that drained stock makes this match zero rows
	for _, dec := range d.Decrements {
		var newStock int
		err = tx.QueryRow(`UPDATE products
            SET stock = stock - $1, "updatedAt" = NOW()
            WHERE "productID" = $2 AND stock >= $1
            RETURNING stock`, dec.Quantity, dec.ProductID).Scan(&newStock)
		if err == sql.ErrNoRows {
			return OrderView{}, ErrInsufficientStock
		}
		if err != nil {
			return OrderView{}, err
		}
		if _, err := tx.Exec(`INSERT INTO inventory_log ("productID", change, "previousStock", "newStock", reason, reference, "createdAt")
            VALUES ($1,$2,$3,$4,'ORDER',$5,NOW())`,
			dec.ProductID, -dec.Quantity, newStock+dec.Quantity, newStock, o.OrderNumber); err != nil {
			return OrderView{}, err
		}
	}

	if _, err := tx.Exec(`DELETE FROM cart_items WHERE "cartID" = $1`, d.CartID); err != nil {
		return OrderView{}, err
	}

	payload := notify.EventPayload{OrderID: o.ID, Phone: o.CustomerPhone, Email: o.CustomerEmail}
	if err := s.queue.EnqueueTx(tx, outbox.TopicOrderConfirmed, o.OrderNumber, payload); err != nil {
		return OrderView{}, err
	}
	if err := s.queue.EnqueueTx(tx, outbox.TopicInvoiceRequested, o.OrderNumber, payload); err != nil {
		return OrderView{}, err
	}

	if err := tx.Commit(); err != nil {
		return OrderView{}, err
	}
	return view, nil
}
