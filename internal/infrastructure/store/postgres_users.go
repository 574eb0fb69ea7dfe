package store

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresUserStore backs the identity provider.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) Create(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.CreatedAt)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.get(ctx, `SELECT id, email, password_hash, name, role, created_at FROM users WHERE email = $1`, email)
}

func (s *PostgresUserStore) GetByID(ctx context.Context, id string) (*User, error) {
	return s.get(ctx, `SELECT id, email, password_hash, name, role, created_at FROM users WHERE id = $1`, id)
}

func (s *PostgresUserStore) get(ctx context.Context, query, arg string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
