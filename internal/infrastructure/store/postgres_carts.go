package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/storefront/internal/domain/cart"
)

// PostgresCartStore persists visitor carts as single JSONB rows.
type PostgresCartStore struct {
	db *sql.DB
}

func NewPostgresCartStore(db *sql.DB) *PostgresCartStore {
	return &PostgresCartStore{db: db}
}

func (s *PostgresCartStore) Get(ctx context.Context, visitorID string) (*cart.Cart, bool, error) {
	var itemsJSON []byte
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT items, updated_at FROM carts WHERE visitor_id = $1`, visitorID,
	).Scan(&itemsJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	c := &cart.Cart{VisitorID: visitorID, UpdatedAt: updatedAt}
	if err := json.Unmarshal(itemsJSON, &c.Items); err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (s *PostgresCartStore) Save(ctx context.Context, c *cart.Cart) error {
	itemsJSON, err := json.Marshal(c.Items)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO carts (visitor_id, items, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (visitor_id) DO UPDATE SET
			items = EXCLUDED.items,
			updated_at = EXCLUDED.updated_at
	`, c.VisitorID, itemsJSON, c.UpdatedAt)
	return err
}
