package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/middleware"
)

func newAuthenticator(ttl time.Duration) *middleware.SessionAuthenticator {
	return middleware.NewSessionAuthenticator([]byte("test-session-key"), func() time.Duration {
		return ttl
	})
}

func protectedHandler(t *testing.T, auth *middleware.SessionAuthenticator, wantUserID string) http.Handler {
	return auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantUserID, userID)
		w.WriteHeader(http.StatusOK)
	}))
}

func TestIssueAndValidate(t *testing.T) {
	auth := newAuthenticator(time.Hour)

	token, expiresAt, err := auth.Issue("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protectedHandler(t, auth, "user-1").ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingAuthorization(t *testing.T) {
	auth := newAuthenticator(time.Hour)

	req := httptest.NewRequest("GET", "/whoami", nil)
	rec := httptest.NewRecorder()

	protectedHandler(t, auth, "").ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authorization missing", rec.Body.String())
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	auth := newAuthenticator(time.Hour)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", `Token token="abc"`)
	rec := httptest.NewRecorder()

	protectedHandler(t, auth, "").ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Malformed authorization header", rec.Body.String())
}

func TestExpiredToken(t *testing.T) {
	auth := newAuthenticator(-time.Minute)

	token, _, err := auth.Issue("user-1")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protectedHandler(t, auth, "").ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", rec.Body.String())
}

func TestTokenSignedWithDifferentKey(t *testing.T) {
	issuer := middleware.NewSessionAuthenticator([]byte("other-key"), func() time.Duration {
		return time.Hour
	})
	token, _, err := issuer.Issue("user-1")
	require.NoError(t, err)

	auth := newAuthenticator(time.Hour)
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protectedHandler(t, auth, "").ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
