package auth

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"caltrack/internal/models"
)

const HeaderAPIKey = "x-api-key"

const (
	MethodAPIKey  = "api-key"
	MethodSession = "session"
)

// Identity is the verdict of resolving a request's credentials.
type Identity struct {
	Authenticated bool
	Method        string
	UserEmail     string
}

// KeySource provides the active credential records a bearer token is
// verified against, and records successful use.
type KeySource interface {
	ActiveKeys(ctx context.Context) ([]models.APIKey, error)
	TouchKey(id string)
}

// Resolver decides whether a request is authenticated. Order is fixed: the
// static shared secret short-circuits before any database work, then stored
// key hashes, then the session cookie.
type Resolver struct {
	keys         KeySource
	sessions     *SessionManager
	legacyKey    string
	allowedEmail string
	log          *zap.Logger
}

func NewResolver(keys KeySource, sessions *SessionManager, legacyKey, allowedEmail string, log *zap.Logger) *Resolver {
	return &Resolver{
		keys:         keys,
		sessions:     sessions,
		legacyKey:    legacyKey,
		allowedEmail: allowedEmail,
		log:          log,
	}
}

func (r *Resolver) Resolve(req *http.Request) Identity {
	header := req.Header.Get(HeaderAPIKey)
	if header != "" {
		if r.legacyKey != "" && header == r.legacyKey {
			// Legacy shared secret carries no owning email.
			return Identity{Authenticated: true, Method: MethodAPIKey}
		}
		keys, err := r.keys.ActiveKeys(req.Context())
		if err != nil {
			r.log.Error("api key lookup failed", zap.Error(err))
		} else {
			// Tokens are stored hashed, so every active record has to be
			// checked; the first verifying record wins.
			for _, k := range keys {
				if VerifyToken(header, k.KeyHash) {
					go r.keys.TouchKey(k.ID)
					return Identity{Authenticated: true, Method: MethodAPIKey, UserEmail: k.UserEmail}
				}
			}
		}
	}

	if email := r.sessions.Email(req); email != "" && email == r.allowedEmail {
		return Identity{Authenticated: true, Method: MethodSession, UserEmail: email}
	}

	return Identity{}
}
