package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"caltrack/internal/models"
)

type fakeKeySource struct {
	keys    []models.APIKey
	err     error
	calls   int
	touched chan string
}

func newFakeKeySource(keys ...models.APIKey) *fakeKeySource {
	return &fakeKeySource{keys: keys, touched: make(chan string, 1)}
}

func (f *fakeKeySource) ActiveKeys(ctx context.Context) ([]models.APIKey, error) {
	f.calls++
	return f.keys, f.err
}

func (f *fakeKeySource) TouchKey(id string) {
	f.touched <- id
}

const (
	legacySecret = "legacy-shared-secret-value"
	ownerEmail   = "me@example.com"
)

func newTestResolver(keys *fakeKeySource) (*Resolver, *SessionManager) {
	sessions := NewSessionManager([]byte(testSecret))
	return NewResolver(keys, sessions, legacySecret, ownerEmail, zap.NewNop()), sessions
}

func TestResolveStaticKeyWinsOverEverything(t *testing.T) {
	keys := newFakeKeySource()
	resolver, sessions := newTestResolver(keys)

	// A valid session is present too; the static secret must still win and
	// the database scan must never run.
	req := requestWithSessionCookie(t, sessions, ownerEmail)
	req.Header.Set(HeaderAPIKey, legacySecret)

	id := resolver.Resolve(req)
	assert.True(t, id.Authenticated)
	assert.Equal(t, MethodAPIKey, id.Method)
	assert.Empty(t, id.UserEmail)
	assert.Zero(t, keys.calls)
}

func TestResolveDatabaseKey(t *testing.T) {
	token, hash, err := GenerateToken()
	require.NoError(t, err)
	keys := newFakeKeySource(
		models.APIKey{ID: "key-1", UserEmail: "other@example.com", KeyHash: "$2a$10$invalidhashinvalidhashinvalidhashinvalidhashinvalid"},
		models.APIKey{ID: "key-2", UserEmail: ownerEmail, KeyHash: hash},
	)
	resolver, _ := newTestResolver(keys)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderAPIKey, token)

	id := resolver.Resolve(req)
	assert.True(t, id.Authenticated)
	assert.Equal(t, MethodAPIKey, id.Method)
	assert.Equal(t, ownerEmail, id.UserEmail)

	select {
	case touched := <-keys.touched:
		assert.Equal(t, "key-2", touched)
	case <-time.After(2 * time.Second):
		t.Fatal("last_used_at was never stamped")
	}
}

func TestResolveUnknownTokenFallsThroughToSession(t *testing.T) {
	keys := newFakeKeySource()
	resolver, sessions := newTestResolver(keys)

	req := requestWithSessionCookie(t, sessions, ownerEmail)
	req.Header.Set(HeaderAPIKey, "clt_deadbeef")

	id := resolver.Resolve(req)
	assert.True(t, id.Authenticated)
	assert.Equal(t, MethodSession, id.Method)
	assert.Equal(t, ownerEmail, id.UserEmail)
	assert.Equal(t, 1, keys.calls)
}

func TestResolveKeyLookupErrorSwallowed(t *testing.T) {
	keys := newFakeKeySource()
	keys.err = errors.New("db down")
	resolver, _ := newTestResolver(keys)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderAPIKey, "clt_deadbeef")

	id := resolver.Resolve(req)
	assert.False(t, id.Authenticated)
}

func TestResolveSessionOnly(t *testing.T) {
	resolver, sessions := newTestResolver(newFakeKeySource())
	req := requestWithSessionCookie(t, sessions, ownerEmail)

	id := resolver.Resolve(req)
	assert.True(t, id.Authenticated)
	assert.Equal(t, MethodSession, id.Method)
	assert.Equal(t, ownerEmail, id.UserEmail)
}

func TestResolveSessionWrongEmailRejected(t *testing.T) {
	resolver, sessions := newTestResolver(newFakeKeySource())
	req := requestWithSessionCookie(t, sessions, "intruder@example.com")

	id := resolver.Resolve(req)
	assert.False(t, id.Authenticated)
}

func TestResolveNoCredentials(t *testing.T) {
	resolver, _ := newTestResolver(newFakeKeySource())
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	id := resolver.Resolve(req)
	assert.False(t, id.Authenticated)
	assert.Empty(t, id.Method)
}
