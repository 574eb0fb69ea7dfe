package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"github.com/example/storefront/internal/domain/order"
)

const uniqueViolation = "23505"

// PostgresLedger implements OrderLedger on PostgreSQL. Per-session atomicity
// comes from the unique constraint on session_id plus SELECT ... FOR UPDATE
// row serialization inside each mutation.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

const orderColumns = `id, session_id, customer_email, items, total, currency, status, created_at, updated_at`

func (l *PostgresLedger) CreatePending(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO orders (id, session_id, customer_email, items, total, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, o.ID, o.SessionID, o.CustomerEmail, itemsJSON, o.Total, o.Currency, o.Status, o.CreatedAt, o.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateSession
	}
	return err
}

func (l *PostgresLedger) MarkPaid(ctx context.Context, sessionID string, seed *order.Order) (*order.Order, order.Status, bool, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", false, err
	}
	defer tx.Rollback()

	existing, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE session_id = $1 FOR UPDATE`, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		if seed == nil {
			return nil, "", false, ErrNotFound
		}
		return l.insertPaid(ctx, tx, sessionID, seed)
	}
	if err != nil {
		return nil, "", false, err
	}

	prev := existing.Status
	if prev != order.StatusPending {
		// Already paid-or-later, failed, or cancelled: replayed event, no-op.
		return existing, prev, false, nil
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE session_id = $3`,
		order.StatusPaid, now, sessionID); err != nil {
		return nil, "", false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, "", false, err
	}

	existing.Status = order.StatusPaid
	existing.UpdatedAt = now
	return existing, prev, true, nil
}

func (l *PostgresLedger) insertPaid(ctx context.Context, tx *sql.Tx, sessionID string, seed *order.Order) (*order.Order, order.Status, bool, error) {
	paid := *seed
	paid.SessionID = sessionID
	paid.Status = order.StatusPaid
	now := time.Now()
	paid.CreatedAt = now
	paid.UpdatedAt = now

	itemsJSON, err := json.Marshal(paid.Items)
	if err != nil {
		return nil, "", false, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, session_id, customer_email, items, total, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, paid.ID, paid.SessionID, paid.CustomerEmail, itemsJSON, paid.Total, paid.Currency, paid.Status, paid.CreatedAt, paid.UpdatedAt)
	if isUniqueViolation(err) {
		// A concurrent delivery won the insert race; report its row as the
		// already-processed result.
		tx.Rollback()
		winner, gerr := l.GetBySessionID(ctx, sessionID)
		if gerr != nil {
			return nil, "", false, gerr
		}
		return winner, winner.Status, false, nil
	}
	if err != nil {
		return nil, "", false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, "", false, err
	}
	return &paid, order.StatusPending, true, nil
}

func (l *PostgresLedger) MarkFailed(ctx context.Context, sessionID string) (*order.Order, order.Status, bool, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", false, err
	}
	defer tx.Rollback()

	existing, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE session_id = $1 FOR UPDATE`, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		// No order is fabricated for a failure.
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, err
	}

	prev := existing.Status
	if !existing.CanTransitionTo(order.StatusPaymentFailed) {
		return existing, prev, false, nil
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE session_id = $3`,
		order.StatusPaymentFailed, now, sessionID); err != nil {
		return nil, "", false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, "", false, err
	}

	existing.Status = order.StatusPaymentFailed
	existing.UpdatedAt = now
	return existing, prev, true, nil
}

func (l *PostgresLedger) UpdateStatus(ctx context.Context, orderID string, next order.Status) (*order.Order, order.Status, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", err
	}
	defer tx.Rollback()

	existing, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", order.ErrOrderNotFound
	}
	if err != nil {
		return nil, "", err
	}

	prev := existing.Status
	if !existing.CanTransitionTo(next) {
		return existing, prev, existing.TransitionError(next)
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		next, now, orderID); err != nil {
		return nil, "", err
	}
	if err := tx.Commit(); err != nil {
		return nil, "", err
	}

	existing.Status = next
	existing.UpdatedAt = now
	return existing, prev, nil
}

func (l *PostgresLedger) GetByID(ctx context.Context, orderID string) (*order.Order, error) {
	o, err := scanOrder(l.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (l *PostgresLedger) GetBySessionID(ctx context.Context, sessionID string) (*order.Order, error) {
	o, err := scanOrder(l.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE session_id = $1`, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (l *PostgresLedger) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := scanOrderRows(rows)
		if err != nil {
			log.Printf("[Ledger] Error scanning order: %v", err)
			continue
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var o order.Order
	var itemsJSON []byte
	err := row.Scan(&o.ID, &o.SessionID, &o.CustomerEmail, &itemsJSON, &o.Total, &o.Currency, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	return &o, nil
}

func scanOrderRows(rows *sql.Rows) (*order.Order, error) {
	return scanOrder(rows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
