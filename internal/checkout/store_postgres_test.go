package checkout

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/isoko-rw/marketplace-backend/internal/order"
	"github.com/isoko-rw/marketplace-backend/internal/outbox"
	"github.com/isoko-rw/marketplace-backend/internal/payment"
)

func testDraft(now time.Time) Draft {
	return Draft{
		Order: order.Order{
			OrderNumber: "ORD-20260831-ABCDEF12", CustomerID: 9, CustomerName: "Alice",
			ItemsSnapshot: []byte(`[]`), PaymentStatus: order.PaymentPending, DeliveryStatus: order.DeliveryPending,
			Subtotal: 2000, DeliveryFee: 1500, Total: 3500, SupplierCount: 1,
			CreatedAt: now, UpdatedAt: now,
		},
		Items: []order.OrderItem{{
			ProductID: 1, ProductName: "Maize flour", SupplierID: intPtr(1), UnitPrice: 1000, Quantity: 2,
			TotalPrice: 2000, CommissionRate: 10, CommissionAmount: 200,
			FulfillmentStatus: order.FulfillmentPending, CreatedAt: now,
		}},
		Payment:    payment.Payment{Method: "MOMO", Amount: 3500, Currency: "RWF", Status: order.PaymentPending},
		Delivery:   order.Delivery{TrackingNumber: "TRK-TEST", Status: order.DeliveryPending, Address: "Kigali"},
		Decrements: []StockDecrement{{ProductID: 1, Quantity: 2}},
		CartID:     4,
	}
}

func TestPostgresStore_CommitsWholeDraft(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	store := NewPostgresStore(db, outbox.NewPostgresQueue(db))

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(sqlmock.NewRows([]string{"orderID", "createdAt", "updatedAt"}).AddRow(42, now, now))
	mock.ExpectQuery("INSERT INTO order_items").
		WillReturnRows(sqlmock.NewRows([]string{"orderItemID"}).AddRow(7))
	mock.ExpectQuery("INSERT INTO payments").
		WillReturnRows(sqlmock.NewRows([]string{"paymentID", "createdAt", "updatedAt"}).AddRow(5, now, now))
	mock.ExpectQuery("INSERT INTO deliveries").
		WillReturnRows(sqlmock.NewRows([]string{"deliveryID", "createdAt", "updatedAt"}).AddRow(3, now, now))
	mock.ExpectQuery("UPDATE products").WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(8))
	mock.ExpectExec("INSERT INTO inventory_log").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM cart_items").WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO outbox").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	view, err := store.CreateOrder(testDraft(now))
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if view.Order.ID != 42 || view.Items[0].ID != 7 || view.Payment.ID != 5 {
		t.Fatalf("ids not propagated into the view: %+v", view)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_RollsBackWhenStockExhausted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	store := NewPostgresStore(db, outbox.NewPostgresQueue(db))

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(sqlmock.NewRows([]string{"orderID", "createdAt", "updatedAt"}).AddRow(42, now, now))
	mock.ExpectQuery("INSERT INTO order_items").
		WillReturnRows(sqlmock.NewRows([]string{"orderItemID"}).AddRow(7))
	mock.ExpectQuery("INSERT INTO payments").
		WillReturnRows(sqlmock.NewRows([]string{"paymentID", "createdAt", "updatedAt"}).AddRow(5, now, now))
	mock.ExpectQuery("INSERT INTO deliveries").
		WillReturnRows(sqlmock.NewRows([]string{"deliveryID", "createdAt", "updatedAt"}).AddRow(3, now, now))
	// a concurrent checkout drained the stock: the guarded update matches
	// zero rows and the whole draft must roll back
	mock.ExpectQuery("UPDATE products").WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}))
	mock.ExpectRollback()

	_, err = store.CreateOrder(testDraft(now))
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
