package product

import (
	"database/sql"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const productColumns = `"productID", name, description, price, currency, stock, "supplierID", active, "createdAt", "updatedAt"`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	var supplierID sql.NullInt64
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Currency, &p.Stock, &supplierID, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if supplierID.Valid {
		id := int(supplierID.Int64)
		p.SupplierID = &id
	}
	return p, nil
}

func (r *PostgresRepository) List() ([]Product, error) {
	rows, err := r.db.Query(`SELECT ` + productColumns + ` FROM products ORDER BY "productID"`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(id int) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(`SELECT `+productColumns+` FROM products WHERE "productID" = $1`, id))
	if err == sql.ErrNoRows {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) ListByIDs(ids []int) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	rows, err := r.db.Query(`SELECT `+productColumns+` FROM products
		WHERE "productID" = ANY($1::int[])
		ORDER BY array_position($1::int[], "productID")`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Product, 0, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(p Product) (Product, error) {
	var supplierID any
	if p.SupplierID != nil {
		supplierID = *p.SupplierID
	}
	created, err := scanProduct(r.db.QueryRow(`INSERT INTO products (name, description, price, currency, stock, "supplierID", active, "createdAt", "updatedAt")
        VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())
        RETURNING `+productColumns,
		p.Name, p.Description, p.Price, p.Currency, p.Stock, supplierID, p.Active))
	if err != nil {
		return Product{}, err
	}
	return created, nil
}

func (r *PostgresRepository) Update(id int, p Product) (Product, error) {
	var supplierID any
	if p.SupplierID != nil {
		supplierID = *p.SupplierID
	}
	updated, err := scanProduct(r.db.QueryRow(`UPDATE products
        SET name = $1, description = $2, price = $3, currency = $4, stock = $5, "supplierID" = $6, active = $7, "updatedAt" = NOW()
        WHERE "productID" = $8
        RETURNING `+productColumns,
		p.Name, p.Description, p.Price, p.Currency, p.Stock, supplierID, p.Active, id))
	if err == sql.ErrNoRows {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return updated, nil
}

func (r *PostgresRepository) ListInventoryLog(productID int) ([]InventoryLog, error) {
	rows, err := r.db.Query(`SELECT "logID", "productID", change, "previousStock", "newStock", reason, reference, "createdAt"
		FROM inventory_log WHERE "productID" = $1 ORDER BY "logID" DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]InventoryLog, 0)
	for rows.Next() {
		var l InventoryLog
		var ref sql.NullString
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Change, &l.PreviousStock, &l.NewStock, &l.Reason, &ref, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Reference = ref.String
		out = append(out, l)
	}
	return out, rows.Err()
}
