package middleware

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

// UserIDKey holds the authenticated user id in the request context
const UserIDKey contextKey = "userID"

// ErrNoSessionKey is returned when HYBRID_SESSION_KEY is unset
var ErrNoSessionKey = errors.New("HYBRID_SESSION_KEY is not set")

// SessionAuthenticator issues and validates HS256 session tokens for
// the admin API. These are service-local bearer tokens, not Keystone
// tokens.
type SessionAuthenticator struct {
	key []byte
	ttl func() time.Duration
}

// NewSessionAuthenticator creates a session authenticator. ttl is
// called at issue time so configuration reloads take effect.
func NewSessionAuthenticator(key []byte, ttl func() time.Duration) *SessionAuthenticator {
	return &SessionAuthenticator{key: key, ttl: ttl}
}

// NewSessionAuthenticatorFromEnv reads the signing key from
// HYBRID_SESSION_KEY.
func NewSessionAuthenticatorFromEnv(ttl func() time.Duration) (*SessionAuthenticator, error) {
	key := os.Getenv("HYBRID_SESSION_KEY")
	if key == "" {
		return nil, ErrNoSessionKey
	}
	return NewSessionAuthenticator([]byte(key), ttl), nil
}

// Issue creates a signed token for a user id
func (s *SessionAuthenticator) Issue(userID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Middleware returns an HTTP middleware that validates bearer tokens
// and puts the subject user id on the request context.
func (s *SessionAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if len(authHeader) == 0 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Authorization missing"))
			return
		}

		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Malformed authorization header"))
			return
		}

		claims := jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.key, nil
		})
		if err != nil || !token.Valid {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Invalid token"))
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID extracts the authenticated user id from a request context
func UserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}
