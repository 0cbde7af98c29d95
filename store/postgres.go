package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS sessions (
	id UUID PRIMARY KEY,
	token TEXT NOT NULL,
	user_data JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
)`

type PostgresStore struct {
	DB *sql.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

// Migrate creates the sessions table when it does not exist yet.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, createSessionsTable); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	query := `SELECT id, token, user_data, created_at, expires_at FROM sessions WHERE id = $1 AND expires_at > $2`

	var s Session
	var userData []byte
	err := p.DB.QueryRowContext(ctx, query, id, time.Now().UTC()).
		Scan(&s.ID, &s.Token, &userData, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(userData, &s.User); err != nil {
		return nil, fmt.Errorf("decode session user: %w", err)
	}
	return &s, nil
}

func (p *PostgresStore) Set(ctx context.Context, s *Session) error {
	userData, err := json.Marshal(s.User)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (id, token, user_data, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET token = EXCLUDED.token, user_data = EXCLUDED.user_data, expires_at = EXCLUDED.expires_at`

	_, err = p.DB.ExecContext(ctx, query, s.ID, s.Token, userData, s.CreatedAt, s.ExpiresAt)
	return err
}

func (p *PostgresStore) Clear(ctx context.Context, id string) error {
	_, err := p.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (p *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := p.DB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
