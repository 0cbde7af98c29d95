package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"scrollvite/pkg/logger"
	"scrollvite/store"
)

type contextKey string

const (
	SessionKey       contextKey = "session"
	TicketSessionKey contextKey = "ticketSession"
	InviteIDKey      contextKey = "inviteID"
)

const (
	SessionCookie = "scrollvite_session"
	FlashCookie   = "scrollvite_flash"
)

// Sessions ties the browser cookie to a server-side store.Session.
type Sessions struct {
	store  store.Store
	codec  *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
}

// NewSessions builds the cookie codec. Empty keys are replaced with random
// ones, which means cookies stop decoding after a restart.
func NewSessions(st store.Store, hashKey, blockKey []byte, ttl time.Duration, secure bool) *Sessions {
	if len(hashKey) == 0 {
		logger.Sugar.Warn("COOKIE_HASH_KEY not set, generating a random key; sessions will not survive a restart")
		hashKey = securecookie.GenerateRandomKey(64)
	}
	if len(blockKey) == 0 {
		blockKey = securecookie.GenerateRandomKey(32)
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(ttl.Seconds()))

	return &Sessions{store: st, codec: codec, ttl: ttl, secure: secure}
}

// TTL is the lifetime of new sessions.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Start persists sess and points the browser at it.
func (s *Sessions) Start(w http.ResponseWriter, r *http.Request, sess *store.Session) error {
	if err := s.store.Set(r.Context(), sess); err != nil {
		return err
	}
	encoded, err := s.codec.Encode(SessionCookie, sess.ID)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie(SessionCookie, encoded, int(s.ttl.Seconds())))
	return nil
}

// End clears the stored session and the cookie. It is safe to call without one.
func (s *Sessions) End(w http.ResponseWriter, r *http.Request) {
	if id, ok := s.sessionID(r); ok {
		if err := s.store.Clear(r.Context(), id); err != nil {
			logger.Sugar.Errorf("Failed to clear session %s: %v", id, err)
		}
	}
	http.SetCookie(w, s.cookie(SessionCookie, "", -1))
}

// Lookup resolves the session behind a request, or nil.
func (s *Sessions) Lookup(r *http.Request) *store.Session {
	id, ok := s.sessionID(r)
	if !ok {
		return nil
	}
	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Sugar.Errorf("Failed to load session: %v", err)
		}
		return nil
	}
	return sess
}

func (s *Sessions) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	var id string
	if err := s.codec.Decode(SessionCookie, c.Value, &id); err != nil {
		return "", false
	}
	return id, true
}

func (s *Sessions) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// LoadSession attaches the caller's session (if any) to the request context.
func (s *Sessions) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess := s.Lookup(r); sess != nil {
			r = r.WithContext(context.WithValue(r.Context(), SessionKey, sess))
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFrom returns the session LoadSession attached, or nil.
func SessionFrom(ctx context.Context) *store.Session {
	sess, _ := ctx.Value(SessionKey).(*store.Session)
	return sess
}

// RequireAuth redirects anonymous callers to the login page.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFrom(r.Context()).Authenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole lets through only sessions whose user holds role; others go
// back to the category list. Anonymous callers are sent to login first.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SessionFrom(r.Context()).User.Role != role {
				http.Redirect(w, r, "/categories", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
