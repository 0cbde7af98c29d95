package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/securecookie"

	"scrollvite/pkg/logger"
)

// TicketClaims bind a socket connection to one session and one invite.
type TicketClaims struct {
	InviteID string `json:"inv"`
	jwt.RegisteredClaims
}

// Tickets issues the short-lived tokens the editor page hands to its socket.
type Tickets struct {
	secret []byte
	ttl    time.Duration
}

func NewTickets(secret []byte, ttl time.Duration) *Tickets {
	if len(secret) == 0 {
		logger.Sugar.Warn("SOCKET_SECRET not set, generating a random key")
		secret = securecookie.GenerateRandomKey(32)
	}
	return &Tickets{secret: secret, ttl: ttl}
}

func (t *Tickets) Issue(sessionID, inviteID string) (string, error) {
	now := time.Now()
	claims := TicketClaims{
		InviteID: inviteID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tickets) Verify(tokenString string) (*TicketClaims, error) {
	claims := &TicketClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid ticket")
	}
	if claims.Subject == "" || claims.InviteID == "" {
		return nil, errors.New("ticket is missing session or invite")
	}
	return claims, nil
}

// RequireTicket guards the editor socket. Browsers cannot set headers on a
// websocket handshake, so the ticket rides in the query string. The invite id
// requested must match the one the ticket was issued for.
func (t *Tickets) RequireTicket(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("ticket")
		if tokenString == "" {
			http.Error(w, "Unauthorized: No ticket provided", http.StatusUnauthorized)
			return
		}

		claims, err := t.Verify(tokenString)
		if err != nil {
			logger.Sugar.Warnf("Invalid socket ticket: %v", err)
			http.Error(w, "Unauthorized: Invalid or expired ticket", http.StatusUnauthorized)
			return
		}

		if inviteID := r.URL.Query().Get("inviteId"); inviteID != "" && inviteID != claims.InviteID {
			http.Error(w, "Unauthorized: Ticket was issued for another invite", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), TicketSessionKey, claims.Subject)
		ctx = context.WithValue(ctx, InviteIDKey, claims.InviteID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TicketFrom returns the session id and invite id RequireTicket verified.
func TicketFrom(ctx context.Context) (sessionID, inviteID string) {
	sessionID, _ = ctx.Value(TicketSessionKey).(string)
	inviteID, _ = ctx.Value(InviteIDKey).(string)
	return sessionID, inviteID
}
