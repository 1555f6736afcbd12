package cart

import (
	"database/sql"

	"github.com/google/uuid"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const itemsQuery = `
        SELECT ci."itemID", ci."cartID", ci."productID", ci."nameSnapshot", ci."priceSnapshot", ci.quantity, ci.currency, p."supplierID"
        FROM cart_items ci
        JOIN products p ON p."productID" = ci."productID"
        WHERE ci."cartID" = $1
        ORDER BY ci."itemID"
    `

func (r *PostgresRepository) GetOrCreate(ownerKey string) (Cart, error) {
	var c Cart
	err := r.db.QueryRow(`SELECT "cartID", "externalID", "ownerKey", "createdAt", "updatedAt" FROM carts WHERE "ownerKey" = $1`, ownerKey).
		Scan(&c.ID, &c.ExternalID, &c.OwnerKey, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		err = r.db.QueryRow(`INSERT INTO carts ("externalID", "ownerKey", "createdAt", "updatedAt")
            VALUES ($1,$2,NOW(),NOW())
            RETURNING "cartID", "externalID", "ownerKey", "createdAt", "updatedAt"`, uuid.NewString(), ownerKey).
			Scan(&c.ID, &c.ExternalID, &c.OwnerKey, &c.CreatedAt, &c.UpdatedAt)
	}
	if err != nil {
		return Cart{}, err
	}
	return r.loadItems(c)
}

func (r *PostgresRepository) GetByExternalID(externalID string) (Cart, error) {
	var c Cart
	err := r.db.QueryRow(`SELECT "cartID", "externalID", "ownerKey", "createdAt", "updatedAt" FROM carts WHERE "externalID" = $1`, externalID).
		Scan(&c.ID, &c.ExternalID, &c.OwnerKey, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return Cart{}, ErrNotFound
	}
	if err != nil {
		return Cart{}, err
	}
	return r.loadItems(c)
}

func (r *PostgresRepository) loadItems(c Cart) (Cart, error) {
	rows, err := r.db.Query(itemsQuery, c.ID)
	if err != nil {
		return Cart{}, err
	}
	defer rows.Close()

	c.Items = make([]CartItem, 0)
	for rows.Next() {
		var item CartItem
		var supplierID sql.NullInt64
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.NameSnapshot, &item.PriceSnapshot, &item.Quantity, &item.Currency, &supplierID); err != nil {
			return Cart{}, err
		}
		if supplierID.Valid {
			id := int(supplierID.Int64)
			item.SupplierID = &id
		}
		c.Items = append(c.Items, item)
	}
	return c, rows.Err()
}

// UpsertItem inserts a line or, when the product is already carted, replaces
// quantity and snapshots in place.
func (r *PostgresRepository) UpsertItem(cartID int, item CartItem) error {
	_, err := r.db.Exec(`INSERT INTO cart_items ("cartID", "productID", "nameSnapshot", "priceSnapshot", quantity, currency)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT ("cartID", "productID") DO UPDATE
        SET "nameSnapshot" = EXCLUDED."nameSnapshot",
            "priceSnapshot" = EXCLUDED."priceSnapshot",
            quantity = EXCLUDED.quantity,
            currency = EXCLUDED.currency`,
		cartID, item.ProductID, item.NameSnapshot, item.PriceSnapshot, item.Quantity, item.Currency)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`UPDATE carts SET "updatedAt" = NOW() WHERE "cartID" = $1`, cartID)
	return err
}

func (r *PostgresRepository) RemoveItem(cartID, productID int) error {
	res, err := r.db.Exec(`DELETE FROM cart_items WHERE "cartID" = $1 AND "productID" = $2`, cartID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	_, err = r.db.Exec(`UPDATE carts SET "updatedAt" = NOW() WHERE "cartID" = $1`, cartID)
	return err
}

func (r *PostgresRepository) ClearItems(cartID int) error {
	if _, err := r.db.Exec(`DELETE FROM cart_items WHERE "cartID" = $1`, cartID); err != nil {
		return err
	}
	_, err := r.db.Exec(`UPDATE carts SET "updatedAt" = NOW() WHERE "cartID" = $1`, cartID)
	return err
}
