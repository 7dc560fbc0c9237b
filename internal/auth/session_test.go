package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func requestWithSessionCookie(t *testing.T, m *SessionManager, email string) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, m.Issue(rec, email))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	m := NewSessionManager([]byte(testSecret))
	req := requestWithSessionCookie(t, m, "me@example.com")
	assert.Equal(t, "me@example.com", m.Email(req))
}

func TestSessionIssueSetsHttpOnlyCookie(t *testing.T) {
	m := NewSessionManager([]byte(testSecret))
	rec := httptest.NewRecorder()
	require.NoError(t, m.Issue(rec, "me@example.com"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestSessionMissingCookie(t *testing.T) {
	m := NewSessionManager([]byte(testSecret))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, m.Email(req))
}

func TestSessionGarbageCookieSwallowed(t *testing.T) {
	m := NewSessionManager([]byte(testSecret))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not-a-jwt"})
	assert.Empty(t, m.Email(req))
}

func TestSessionWrongSecretRejected(t *testing.T) {
	issuer := NewSessionManager([]byte(testSecret))
	verifier := NewSessionManager([]byte("ffffffffffffffffffffffffffffffff"))
	req := requestWithSessionCookie(t, issuer, "me@example.com")
	assert.Empty(t, verifier.Email(req))
}

func TestSessionClearExpiresCookie(t *testing.T) {
	m := NewSessionManager([]byte(testSecret))
	rec := httptest.NewRecorder()
	m.Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}
