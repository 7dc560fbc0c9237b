package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"caltrack/internal/auth"
)

type contextKey string

const identityKey contextKey = "identity"

type AuthMiddleware struct {
	resolver *auth.Resolver
}

func NewAuthMiddleware(resolver *auth.Resolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// RequireAuth rejects unauthenticated requests with the uniform 401 body.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := m.resolver.Resolve(r)
		if !id.Authenticated {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

// RequireUser additionally demands an owning email, so the anonymous legacy
// secret cannot reach key management.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := m.resolver.Resolve(r)
		if !id.Authenticated || id.UserEmail == "" {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

// IdentityFrom returns the identity stashed by RequireAuth/RequireUser.
func IdentityFrom(ctx context.Context) auth.Identity {
	id, _ := ctx.Value(identityKey).(auth.Identity)
	return id
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
