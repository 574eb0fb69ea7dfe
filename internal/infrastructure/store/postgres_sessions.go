package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PostgresSessionStore records checkout attempts and their resolved cart
// snapshots, keyed by the provider-issued session ID.
type PostgresSessionStore struct {
	db *sql.DB
}

func NewPostgresSessionStore(db *sql.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

func (s *PostgresSessionStore) Create(ctx context.Context, cs *CheckoutSession) error {
	itemsJSON, err := json.Marshal(cs.Items)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkout_sessions (id, visitor_id, customer_email, items, total, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, cs.ID, cs.VisitorID, cs.CustomerEmail, itemsJSON, cs.Total, cs.Currency, cs.Status, cs.CreatedAt, cs.UpdatedAt)
	return err
}

func (s *PostgresSessionStore) Get(ctx context.Context, id string) (*CheckoutSession, error) {
	var cs CheckoutSession
	var itemsJSON []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, visitor_id, customer_email, items, total, currency, status, created_at, updated_at
		FROM checkout_sessions WHERE id = $1
	`, id).Scan(&cs.ID, &cs.VisitorID, &cs.CustomerEmail, &itemsJSON, &cs.Total, &cs.Currency, &cs.Status, &cs.CreatedAt, &cs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &cs.Items); err != nil {
		return nil, err
	}
	return &cs, nil
}

func (s *PostgresSessionStore) SetStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE checkout_sessions SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
