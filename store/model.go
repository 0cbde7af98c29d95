package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"scrollvite/internal/client"
)

var ErrNotFound = errors.New("session not found")

// Session is the server-side half of a signed-in browser. The cookie only
// carries ID; the backend access token never leaves the server.
type Session struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	User      client.User `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// NewSession issues a fresh session id for a token/user pair.
func NewSession(token string, user client.User, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Token:     token,
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Authenticated is the only auth check the frontend makes: a token is present.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Store persists sessions. Get returns ErrNotFound for unknown and expired ids.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Set(ctx context.Context, s *Session) error
	Clear(ctx context.Context, id string) error
}
