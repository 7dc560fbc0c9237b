package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"caltrack/internal/auth"
	"caltrack/internal/models"
)

type emptyKeySource struct{}

func (emptyKeySource) ActiveKeys(ctx context.Context) ([]models.APIKey, error) { return nil, nil }
func (emptyKeySource) TouchKey(id string)                                      {}

const legacySecret = "legacy-shared-secret-value"

func newTestMiddleware() *AuthMiddleware {
	sessions := auth.NewSessionManager([]byte("0123456789abcdef0123456789abcdef"))
	resolver := auth.NewResolver(emptyKeySource{}, sessions, legacySecret, "me@example.com", zap.NewNop())
	return NewAuthMiddleware(resolver)
}

func TestRequireAuthRejectsWithUniformBody(t *testing.T) {
	mw := newTestMiddleware()
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
}

func TestRequireAuthStashesIdentity(t *testing.T) {
	mw := newTestMiddleware()
	var got auth.Identity
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = IdentityFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(auth.HeaderAPIKey, legacySecret)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, got.Authenticated)
	assert.Equal(t, auth.MethodAPIKey, got.Method)
}

func TestRequireUserRejectsAnonymousLegacyKey(t *testing.T) {
	mw := newTestMiddleware()
	handler := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(auth.HeaderAPIKey, legacySecret)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
}

func TestIdentityFromEmptyContext(t *testing.T) {
	id := IdentityFrom(context.Background())
	assert.False(t, id.Authenticated)
}
