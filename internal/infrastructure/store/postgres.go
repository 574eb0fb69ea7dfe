package store

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the tables the storefront needs. The unique constraint
// on orders.session_id is what makes webhook reconciliation safe under
// concurrent duplicate delivery.
func EnsureSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			unit_price BIGINT NOT NULL,
			currency   TEXT NOT NULL,
			active     BOOLEAN NOT NULL DEFAULT TRUE,
			digital    BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS carts (
			visitor_id TEXT PRIMARY KEY,
			items      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS checkout_sessions (
			id             TEXT PRIMARY KEY,
			visitor_id     TEXT NOT NULL,
			customer_email TEXT NOT NULL DEFAULT '',
			items          JSONB NOT NULL,
			total          BIGINT NOT NULL,
			currency       TEXT NOT NULL,
			status         TEXT NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id             TEXT PRIMARY KEY,
			session_id     TEXT NOT NULL UNIQUE,
			customer_email TEXT NOT NULL DEFAULT '',
			items          JSONB NOT NULL,
			total          BIGINT NOT NULL,
			currency       TEXT NOT NULL,
			status         TEXT NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id                 TEXT PRIMARY KEY,
			user_id            TEXT NOT NULL,
			status             TEXT NOT NULL,
			price_id           TEXT NOT NULL DEFAULT '',
			current_period_end TIMESTAMPTZ,
			created_at         TIMESTAMPTZ NOT NULL,
			updated_at         TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions (user_id)`,
		`CREATE TABLE IF NOT EXISTS webhook_events (
			id          TEXT PRIMARY KEY,
			event_type  TEXT NOT NULL,
			received_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name          TEXT NOT NULL DEFAULT '',
			role          TEXT NOT NULL DEFAULT 'customer',
			created_at    TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
