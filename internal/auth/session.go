package auth

import (
	"net/http"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const SessionCookie = "caltrack_session"

const sessionTTL = 24 * time.Hour

// SessionManager issues and reads the HS256 session token carried in an
// HttpOnly cookie.
type SessionManager struct {
	secret []byte
}

func NewSessionManager(secret []byte) *SessionManager {
	return &SessionManager{secret: secret}
}

func (m *SessionManager) Issue(w http.ResponseWriter, email string) error {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": email,
		"exp": now.Add(sessionTTL).Unix(),
		"iat": now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(sessionTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Email returns the session principal's email, or "" when the request holds
// no usable session. Parse and signature failures are swallowed: a broken
// cookie is an unauthenticated request, never a server error.
func (m *SessionManager) Email(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	token, err := jwt.Parse(c.Value, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}
