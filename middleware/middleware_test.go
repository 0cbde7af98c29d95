package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrollvite/internal/client"
	"scrollvite/store"
)

func newTestSessions(t *testing.T) (*Sessions, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	return NewSessions(st, []byte("0123456789abcdef0123456789abcdef"), []byte("0123456789abcdef"), time.Hour, false), st
}

// carryCookies copies the Set-Cookie headers of rec onto a new request.
func carryCookies(rec *httptest.ResponseRecorder, r *http.Request) *http.Request {
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func startSession(t *testing.T, s *Sessions, role string) (*store.Session, *httptest.ResponseRecorder) {
	t.Helper()
	sess := store.NewSession("backend-token", client.User{ID: 1, Role: role}, time.Hour)
	rec := httptest.NewRecorder()
	require.NoError(t, s.Start(rec, httptest.NewRequest(http.MethodPost, "/login", nil), sess))
	return sess, rec
}

func TestSessionCookieRoundTrip(t *testing.T) {
	s, _ := newTestSessions(t)
	sess, rec := startSession(t, s, client.RoleBuyer)

	var seen *store.Session
	h := s.LoadSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFrom(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), carryCookies(rec, httptest.NewRequest(http.MethodGet, "/categories", nil)))

	require.NotNil(t, seen)
	assert.Equal(t, sess.ID, seen.ID)
	assert.Equal(t, "backend-token", seen.Token)
}

func TestTamperedCookieIsIgnored(t *testing.T) {
	s, _ := newTestSessions(t)

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "forged"})
	assert.Nil(t, s.Lookup(req))
}

func TestEndClearsStoreAndCookie(t *testing.T) {
	s, st := newTestSessions(t)
	sess, rec := startSession(t, s, client.RoleBuyer)

	out := httptest.NewRecorder()
	s.End(out, carryCookies(rec, httptest.NewRequest(http.MethodPost, "/logout", nil)))

	_, err := st.Get(context.Background(), sess.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	cookies := out.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/my-templates", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRequireRole(t *testing.T) {
	s, _ := newTestSessions(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := s.LoadSession(RequireRole(client.RoleSuperAdmin)(ok))

	_, buyer := startSession(t, s, client.RoleBuyer)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, carryCookies(buyer, httptest.NewRequest(http.MethodGet, "/admin/templates/1", nil)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/categories", rec.Header().Get("Location"))

	_, admin := startSession(t, s, client.RoleSuperAdmin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, carryCookies(admin, httptest.NewRequest(http.MethodGet, "/admin/templates/1", nil)))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestFlashIsOneShot(t *testing.T) {
	s, _ := newTestSessions(t)

	rec := httptest.NewRecorder()
	s.SetFlash(rec, FlashError, "Payment failed")

	out := httptest.NewRecorder()
	f := s.PopFlash(out, carryCookies(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	require.NotNil(t, f)
	assert.Equal(t, FlashError, f.Kind)
	assert.Equal(t, "Payment failed", f.Message)

	cleared := out.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.True(t, cleared[0].MaxAge < 0)

	assert.Nil(t, s.PopFlash(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestTicketRoundTrip(t *testing.T) {
	tickets := NewTickets([]byte("secret"), time.Minute)

	tok, err := tickets.Issue("sess-1", "inv-1")
	require.NoError(t, err)

	claims, err := tickets.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.Subject)
	assert.Equal(t, "inv-1", claims.InviteID)

	_, err = NewTickets([]byte("other"), time.Minute).Verify(tok)
	assert.Error(t, err)
}

func TestExpiredTicketIsRejected(t *testing.T) {
	tickets := NewTickets([]byte("secret"), -time.Minute)

	tok, err := tickets.Issue("sess-1", "inv-1")
	require.NoError(t, err)

	_, err = tickets.Verify(tok)
	assert.Error(t, err)
}

func TestRequireTicket(t *testing.T) {
	tickets := NewTickets([]byte("secret"), time.Minute)
	tok, err := tickets.Issue("sess-1", "inv-1")
	require.NoError(t, err)

	var gotSession, gotInvite string
	h := tickets.RequireTicket(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession, gotInvite = TicketFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?ticket="+tok+"&inviteId=inv-2", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?ticket="+tok+"&inviteId=inv-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-1", gotSession)
	assert.Equal(t, "inv-1", gotInvite)
}

func TestRequestLoggerKeepsStatus(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
