package payment

import (
	"database/sql"

	"github.com/isoko-rw/marketplace-backend/internal/order"
	"github.com/isoko-rw/marketplace-backend/internal/outbox"
)

type PostgresRepository struct {
	db    *sql.DB
	queue outbox.Queue
}

func NewPostgresRepository(db *sql.DB, queue outbox.Queue) *PostgresRepository {
	return &PostgresRepository{db: db, queue: queue}
}

const paymentColumns = `"paymentID", "orderID", method, provider, "phoneNumber", amount, currency, "transactionID", "providerReference", status, "failureReason", "paidAt", "failedAt", "createdAt", "updatedAt"`

func scanPayment(row interface{ Scan(...any) error }) (Payment, error) {
	var p Payment
	var provider, phone, txid, ref, reason sql.NullString
	var paidAt, failedAt sql.NullTime
	err := row.Scan(&p.ID, &p.OrderID, &p.Method, &provider, &phone, &p.Amount, &p.Currency,
		&txid, &ref, &p.Status, &reason, &paidAt, &failedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Payment{}, err
	}
	p.Provider = provider.String
	p.PhoneNumber = phone.String
	p.TransactionID = txid.String
	p.ProviderReference = ref.String
	p.FailureReason = reason.String
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	if failedAt.Valid {
		p.FailedAt = &failedAt.Time
	}
	return p, nil
}

func (r *PostgresRepository) GetByOrderID(orderID int) (Payment, error) {
	p, err := scanPayment(r.db.QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE "orderID" = $1`, orderID))
	if err == sql.ErrNoRows {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (r *PostgresRepository) GetByTransactionID(txid string) (Payment, error) {
	p, err := scanPayment(r.db.QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE "transactionID" = $1`, txid))
	if err == sql.ErrNoRows {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Initiate(paymentID int, provider, phone, txid string) (Payment, error) {
	p, err := scanPayment(r.db.QueryRow(`UPDATE payments
        SET provider = $1, "phoneNumber" = $2, "transactionID" = $3, "updatedAt" = NOW()
        WHERE "paymentID" = $4
        RETURNING `+paymentColumns, provider, phone, txid, paymentID))
	if err == sql.ErrNoRows {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (r *PostgresRepository) MarkFailed(paymentID int, reason string) (Payment, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return Payment{}, err
	}
	defer tx.Rollback()

	// only a still-pending payment may fail here; a webhook that raced the
	// provider call and already settled the payment wins
	p, err := scanPayment(tx.QueryRow(`UPDATE payments
        SET status = 'FAILED', "failureReason" = $1, "failedAt" = NOW(), "updatedAt" = NOW()
        WHERE "paymentID" = $2 AND status = 'PENDING'
        RETURNING `+paymentColumns, reason, paymentID))
	if err == sql.ErrNoRows {
		current, lookupErr := scanPayment(tx.QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE "paymentID" = $1`, paymentID))
		if lookupErr == sql.ErrNoRows {
			return Payment{}, ErrNotFound
		}
		if lookupErr != nil {
			return Payment{}, lookupErr
		}
		return current, nil
	}
	if err != nil {
		return Payment{}, err
	}
	if _, err := tx.Exec(`UPDATE orders SET "paymentStatus" = 'FAILED', "updatedAt" = NOW() WHERE "orderID" = $1`, p.OrderID); err != nil {
		return Payment{}, err
	}
	if err := tx.Commit(); err != nil {
		return Payment{}, err
	}
	return p, nil
}

// ApplyStatus is the single write path webhook and verify converge on. The
// status = 'PENDING' predicate makes terminal states sticky even under
// concurrent webhook deliveries: the second writer matches zero rows and
// falls into the idempotence check.
func (r *PostgresRepository) ApplyStatus(txid string, status order.PaymentStatus, providerRef, reason string, events []outbox.Message) (Payment, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return Payment{}, err
	}
	defer tx.Rollback()

	var query string
	switch status {
	case order.PaymentPaid:
		query = `UPDATE payments
            SET status = 'PAID', "providerReference" = $2, "paidAt" = NOW(), "updatedAt" = NOW()
            WHERE "transactionID" = $1 AND status = 'PENDING'
            RETURNING ` + paymentColumns
	case order.PaymentFailed:
		query = `UPDATE payments
            SET status = 'FAILED', "providerReference" = $2, "failureReason" = $3, "failedAt" = NOW(), "updatedAt" = NOW()
            WHERE "transactionID" = $1 AND status = 'PENDING'
            RETURNING ` + paymentColumns
	default:
		return r.GetByTransactionID(txid)
	}

	var p Payment
	if status == order.PaymentFailed {
		p, err = scanPayment(tx.QueryRow(query, txid, providerRef, reason))
	} else {
		p, err = scanPayment(tx.QueryRow(query, txid, providerRef))
	}
	if err == sql.ErrNoRows {
		// nothing was PENDING: either unknown txid or already terminal
		current, lookupErr := scanPayment(tx.QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE "transactionID" = $1`, txid))
		if lookupErr == sql.ErrNoRows {
			return Payment{}, ErrNotFound
		}
		if lookupErr != nil {
			return Payment{}, lookupErr
		}
		if current.Status == status {
			return current, nil
		}
		return Payment{}, ErrTerminal
	}
	if err != nil {
		return Payment{}, err
	}

	if _, err := tx.Exec(`UPDATE orders SET "paymentStatus" = $1, "updatedAt" = NOW() WHERE "orderID" = $2`, string(status), p.OrderID); err != nil {
		return Payment{}, err
	}
	for _, ev := range events {
		if err := r.queue.EnqueueTx(tx, ev.Topic, ev.Key, ev.Payload); err != nil {
			return Payment{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (r *PostgresRepository) SaveWebhook(externalID, status string, payload []byte) error {
	_, err := r.db.Exec(`INSERT INTO payment_webhooks ("externalID", status, payload, "receivedAt") VALUES ($1,$2,$3,NOW())`,
		externalID, status, payload)
	return err
}
