package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/storefront/internal/domain/subscription"
)

// PostgresSubscriptionStore keeps subscription records keyed by the provider
// subscription ID, upserted from webhook events.
type PostgresSubscriptionStore struct {
	db *sql.DB
}

func NewPostgresSubscriptionStore(db *sql.DB) *PostgresSubscriptionStore {
	return &PostgresSubscriptionStore{db: db}
}

func (s *PostgresSubscriptionStore) Upsert(ctx context.Context, sub *subscription.Subscription) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, user_id, status, price_id, current_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			price_id = EXCLUDED.price_id,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = EXCLUDED.updated_at
	`, sub.ID, sub.UserID, sub.Status, sub.PriceID, nullTime(sub.CurrentPeriodEnd), now)
	return err
}

func (s *PostgresSubscriptionStore) Cancel(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions SET status = $1, updated_at = $2
		WHERE id = $3 AND status <> $1
	`, subscription.StatusCancelled, time.Now(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *PostgresSubscriptionStore) GetByUser(ctx context.Context, userID string) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	var periodEnd sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, price_id, current_period_end, created_at, updated_at
		FROM subscriptions WHERE user_id = $1
		ORDER BY updated_at DESC LIMIT 1
	`, userID).Scan(&sub.ID, &sub.UserID, &sub.Status, &sub.PriceID, &periodEnd, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	sub.CurrentPeriodEnd = periodEnd.Time
	return &sub, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
