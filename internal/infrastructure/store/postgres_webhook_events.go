package store

import (
	"context"
	"database/sql"
	"time"
)

// PostgresWebhookEventStore deduplicates provider deliveries on the event ID
// primary key; the insert either claims the event or reports it as seen.
type PostgresWebhookEventStore struct {
	db *sql.DB
}

func NewPostgresWebhookEventStore(db *sql.DB) *PostgresWebhookEventStore {
	return &PostgresWebhookEventStore{db: db}
}

func (s *PostgresWebhookEventStore) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO webhook_events (id, event_type, received_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, eventID, eventType, time.Now())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *PostgresWebhookEventStore) Forget(ctx context.Context, eventID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM webhook_events WHERE id = $1`, eventID)
	return err
}
