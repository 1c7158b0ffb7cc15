package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devjohxylon/waitlist-api/internal/domain"
	jwtinfra "github.com/devjohxylon/waitlist-api/internal/infrastructure/jwt"
)

type stubAuthorizer struct {
	key *domain.AdminKey
	err error
}

func (s *stubAuthorizer) Authorize(ctx context.Context, presented string) (*domain.AdminKey, error) {
	return s.key, s.err
}

type stubVerifier struct {
	claims *jwtinfra.Claims
	err    error
}

func (s *stubVerifier) Verify(token string) (*jwtinfra.Claims, error) {
	return s.claims, s.err
}

func identityEcho(t *testing.T, want Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, want, *id)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAdminAuth_ValidKeyHeader(t *testing.T) {
	auth := &stubAuthorizer{key: &domain.AdminKey{KeyID: "k1", Name: "ci"}}
	h := AdminAuth(auth, nil)(identityEcho(t, Identity{KeyID: "k1", KeyName: "ci"}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Admin-Key", "wk_whatever")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminAuth_UnknownKeyRejected(t *testing.T) {
	h := AdminAuth(&stubAuthorizer{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Admin-Key", "wk_bogus")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuth_BackendErrorIs503(t *testing.T) {
	h := AdminAuth(&stubAuthorizer{err: errors.New("dynamo down")}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Admin-Key", "wk_any")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminAuth_BearerToken(t *testing.T) {
	v := &stubVerifier{claims: &jwtinfra.Claims{KeyID: "k2", KeyName: "ops"}}
	h := AdminAuth(&stubAuthorizer{}, v)(identityEcho(t, Identity{KeyID: "k2", KeyName: "ops"}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminAuth_BadBearerRejected(t *testing.T) {
	v := &stubVerifier{err: errors.New("expired")}
	h := AdminAuth(&stubAuthorizer{}, v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuth_NoCredentials(t *testing.T) {
	h := AdminAuth(&stubAuthorizer{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
