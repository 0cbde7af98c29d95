package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrollvite/internal/client"
)

var testUser = client.User{ID: 3, Email: "asha@example.com", Name: "Asha", Role: client.RoleBuyer}

func TestNewSession(t *testing.T) {
	s := NewSession("tok", testUser, time.Hour)

	_, err := uuid.Parse(s.ID)
	assert.NoError(t, err)
	assert.True(t, s.Authenticated())
	assert.False(t, s.Expired(time.Now()))
	assert.True(t, s.Expired(s.ExpiresAt))

	var nilSession *Session
	assert.False(t, nilSession.Authenticated())
	assert.False(t, (&Session{}).Authenticated())
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s := NewSession("tok", testUser, time.Hour)

	require.NoError(t, m.Set(ctx, s))

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, testUser, got.User)

	got.Token = "changed"
	again, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", again.Token, "returned sessions are copies")

	require.NoError(t, m.Clear(ctx, s.ID))
	_, err = m.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	live := NewSession("a", testUser, time.Hour)
	dead := NewSession("b", testUser, time.Hour)
	dead.ExpiresAt = time.Now().Add(-time.Minute)

	require.NoError(t, m.Set(ctx, live))
	require.NoError(t, m.Set(ctx, dead))

	_, err := m.Get(ctx, dead.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := m.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = m.Get(ctx, live.ID)
	assert.NoError(t, err)
}

func TestPostgresStoreGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := NewPostgresStore(db)
	created := time.Now().UTC().Add(-time.Hour)
	expires := created.Add(24 * time.Hour)
	userData, _ := json.Marshal(testUser)

	mock.ExpectQuery("SELECT id, token, user_data, created_at, expires_at FROM sessions WHERE id = \\$1").
		WithArgs("s1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "user_data", "created_at", "expires_at"}).
			AddRow("s1", "tok", userData, created, expires))

	s, err := p.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "tok", s.Token)
	assert.Equal(t, testUser, s.User)
	assert.True(t, expires.Equal(s.ExpiresAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, token, user_data").
		WithArgs("missing", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "user_data", "created_at", "expires_at"}))

	_, err = NewPostgresStore(db).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSetAndClear(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := NewPostgresStore(db)
	s := NewSession("tok", testUser, time.Hour)
	userData, _ := json.Marshal(testUser)

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(s.ID, "tok", userData, s.CreatedAt, s.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM sessions WHERE id = \\$1").
		WithArgs(s.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, p.Set(context.Background(), s))
	require.NoError(t, p.Clear(context.Background(), s.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreMigrateAndPurge(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := NewPostgresStore(db)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sessions").
		WillReturnResult(driver.ResultNoRows)
	mock.ExpectExec("DELETE FROM sessions WHERE expires_at <= \\$1").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, p.Migrate(context.Background()))
	n, err := p.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type countingPurger struct {
	calls atomic.Int32
}

func (c *countingPurger) PurgeExpired(context.Context) (int64, error) {
	c.calls.Add(1)
	return 0, nil
}

func TestStartJanitor(t *testing.T) {
	_, err := StartJanitor("sessions", &countingPurger{}, "not a schedule")
	assert.Error(t, err)

	p := &countingPurger{}
	c, err := StartJanitor("sessions", p, "@every 1s")
	require.NoError(t, err)
	defer c.Stop()

	assert.Eventually(t, func() bool { return p.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()

	r, err := NewRedisStore(ctx, url)
	require.NoError(t, err)
	defer r.Close()

	s := NewSession("tok", testUser, time.Minute)
	require.NoError(t, r.Set(ctx, s))

	got, err := r.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, testUser, got.User)

	require.NoError(t, r.Clear(ctx, s.ID))
	_, err = r.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
