package store

import (
	"context"
	"database/sql"
	"errors"
	"log"
)

// PostgresCatalog is the authoritative product catalog.
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

const productColumns = `id, name, description, unit_price, currency, active, digital, created_at, updated_at`

func (c *PostgresCatalog) Get(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := c.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.UnitPrice, &p.Currency, &p.Active, &p.Digital, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *PostgresCatalog) List(ctx context.Context) ([]*Product, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE active = TRUE ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.UnitPrice, &p.Currency, &p.Active, &p.Digital, &p.CreatedAt, &p.UpdatedAt); err != nil {
			log.Printf("[Catalog] Error scanning product: %v", err)
			continue
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

func (c *PostgresCatalog) Create(ctx context.Context, p *Product) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, unit_price, currency, active, digital, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			unit_price = EXCLUDED.unit_price,
			currency = EXCLUDED.currency,
			active = EXCLUDED.active,
			digital = EXCLUDED.digital,
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.Name, p.Description, p.UnitPrice, p.Currency, p.Active, p.Digital, p.CreatedAt, p.UpdatedAt)
	return err
}
