package supplier

import (
	"database/sql"
	"strings"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const supplierColumns = `"supplierID", name, slug, email, phone, "commissionRate", active, "createdAt", "updatedAt"`

func (r *PostgresRepository) List(onlyActive bool) ([]Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers`
	if onlyActive {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY "supplierID"`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Supplier, 0)
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.Email, &s.Phone, &s.CommissionRate, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(id int) (Supplier, error) {
	var s Supplier
	err := r.db.QueryRow(`SELECT `+supplierColumns+` FROM suppliers WHERE "supplierID" = $1`, id).
		Scan(&s.ID, &s.Name, &s.Slug, &s.Email, &s.Phone, &s.CommissionRate, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return Supplier{}, ErrNotFound
	}
	if err != nil {
		return Supplier{}, err
	}
	return s, nil
}

func (r *PostgresRepository) GetBySlug(slug string) (Supplier, error) {
	var s Supplier
	err := r.db.QueryRow(`SELECT `+supplierColumns+` FROM suppliers WHERE slug = $1`, slug).
		Scan(&s.ID, &s.Name, &s.Slug, &s.Email, &s.Phone, &s.CommissionRate, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return Supplier{}, ErrNotFound
	}
	if err != nil {
		return Supplier{}, err
	}
	return s, nil
}

func (r *PostgresRepository) Create(s Supplier) (Supplier, error) {
	err := r.db.QueryRow(`INSERT INTO suppliers (name, slug, email, phone, "commissionRate", active, "createdAt", "updatedAt")
        VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
        RETURNING `+supplierColumns,
		s.Name, s.Slug, s.Email, s.Phone, s.CommissionRate, s.Active).
		Scan(&s.ID, &s.Name, &s.Slug, &s.Email, &s.Phone, &s.CommissionRate, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Supplier{}, ErrSlugTaken
		}
		return Supplier{}, err
	}
	return s, nil
}

func (r *PostgresRepository) Update(id int, s Supplier) (Supplier, error) {
	err := r.db.QueryRow(`UPDATE suppliers
        SET name = $1, slug = $2, email = $3, phone = $4, "commissionRate" = $5, active = $6, "updatedAt" = NOW()
        WHERE "supplierID" = $7
        RETURNING `+supplierColumns,
		s.Name, s.Slug, s.Email, s.Phone, s.CommissionRate, s.Active, id).
		Scan(&s.ID, &s.Name, &s.Slug, &s.Email, &s.Phone, &s.CommissionRate, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return Supplier{}, ErrNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return Supplier{}, ErrSlugTaken
		}
		return Supplier{}, err
	}
	return s, nil
}

// isUniqueViolation detects Postgres error 23505 without binding to a driver
// error type; the pgx stdlib driver includes the SQLSTATE in the message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key value")
}
