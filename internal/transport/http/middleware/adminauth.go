package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/devjohxylon/waitlist-api/internal/domain"
	jwtinfra "github.com/devjohxylon/waitlist-api/internal/infrastructure/jwt"
)

type contextKey string

const identityKey contextKey = "admin-identity"

// Identity is the authenticated admin attached to the request context.
type Identity struct {
	KeyID   string
	KeyName string
}

type keyAuthorizer interface {
	Authorize(ctx context.Context, presented string) (*domain.AdminKey, error)
}

type tokenVerifier interface {
	Verify(token string) (*jwtinfra.Claims, error)
}

// AdminAuth returns middleware that accepts either a raw admin key in
// X-Admin-Key or a Bearer session token, and injects the resolved identity
// into the request context. A nil verifier disables the Bearer path.
func AdminAuth(keys keyAuthorizer, tokens tokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := r.Header.Get("X-Admin-Key"); raw != "" {
				key, err := keys.Authorize(r.Context(), raw)
				if err != nil {
					writeJSONError(w, http.StatusServiceUnavailable, "authorization backend unavailable")
					return
				}
				if key == nil {
					writeJSONError(w, http.StatusUnauthorized, "invalid admin key")
					return
				}
				ctx := context.WithValue(r.Context(), identityKey, &Identity{KeyID: key.KeyID, KeyName: key.Name})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if tokens != nil && strings.HasPrefix(authHeader, "Bearer ") {
				claims, err := tokens.Verify(strings.TrimPrefix(authHeader, "Bearer "))
				if err != nil {
					writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
					return
				}
				ctx := context.WithValue(r.Context(), identityKey, &Identity{KeyID: claims.KeyID, KeyName: claims.KeyName})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			writeJSONError(w, http.StatusUnauthorized, "missing credentials")
		})
	}
}

// IdentityFromContext extracts the authenticated admin from the request context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}
