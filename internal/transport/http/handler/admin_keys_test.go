package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/devjohxylon/waitlist-api/internal/domain"
)

type mockAdminAuthSvc struct{ mock.Mock }

func (m *mockAdminAuthSvc) Authorize(ctx context.Context, presented string) (*domain.AdminKey, error) {
	args := m.Called(ctx, presented)
	if k, _ := args.Get(0).(*domain.AdminKey); k != nil {
		return k, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAdminAuthSvc) CreateKey(ctx context.Context, req domain.CreateAdminKeyRequest) (*domain.AdminKey, string, error) {
	args := m.Called(ctx, req)
	if k, _ := args.Get(0).(*domain.AdminKey); k != nil {
		return k, args.String(1), args.Error(2)
	}
	return nil, "", args.Error(2)
}
func (m *mockAdminAuthSvc) GetKey(ctx context.Context, keyID string) (*domain.AdminKey, error) {
	args := m.Called(ctx, keyID)
	if k, _ := args.Get(0).(*domain.AdminKey); k != nil {
		return k, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAdminAuthSvc) ListKeys(ctx context.Context) ([]domain.AdminKey, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.AdminKey), args.Error(1)
}
func (m *mockAdminAuthSvc) RevokeKey(ctx context.Context, keyID string) error {
	return m.Called(ctx, keyID).Error(0)
}
func (m *mockAdminAuthSvc) Login(ctx context.Context, presented string) (string, time.Time, error) {
	args := m.Called(ctx, presented)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func TestAdminLogin_ReturnsBearer(t *testing.T) {
	expiry := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc := &mockAdminAuthSvc{}
	svc.On("Login", mock.Anything, "wk_raw").Return("jwt-token", expiry, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/sessions", bytes.NewBufferString(`{"key":"wk_raw"}`))
	rec := httptest.NewRecorder()
	NewAdminKeyHandler(svc).Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var env TokenEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "jwt-token", env.Bearer)
	assert.Equal(t, "2026-09-01T12:00:00Z", env.ExpiresAt)
}

func TestAdminLogin_BadKey(t *testing.T) {
	svc := &mockAdminAuthSvc{}
	svc.On("Login", mock.Anything, "wk_bad").Return("", time.Time{}, domain.ErrUnauthorized)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/sessions", bytes.NewBufferString(`{"key":"wk_bad"}`))
	rec := httptest.NewRecorder()
	NewAdminKeyHandler(svc).Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeEnvelope(t, rec).Code)
}

func TestCreateKey_ReturnsRawOnce(t *testing.T) {
	svc := &mockAdminAuthSvc{}
	svc.On("CreateKey", mock.Anything, domain.CreateAdminKeyRequest{Name: "ci"}).
		Return(&domain.AdminKey{KeyID: "k1", Name: "ci", KeyPrefix: "abcd1234"}, "wk_abcd1234secret", nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/keys", bytes.NewBufferString(`{"name":"ci"}`))
	rec := httptest.NewRecorder()
	NewAdminKeyHandler(svc).Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var env CreatedKeyEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "wk_abcd1234secret", env.RawKey)
	assert.Equal(t, "k1", env.Key.KeyID)
}

func TestListKeys_OmitsHashes(t *testing.T) {
	svc := &mockAdminAuthSvc{}
	svc.On("ListKeys", mock.Anything).Return([]domain.AdminKey{
		{KeyID: "k1", Name: "ci", KeyPrefix: "abcd1234", KeyHash: "$2a$10$secret"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/keys", nil)
	rec := httptest.NewRecorder()
	NewAdminKeyHandler(svc).List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "$2a$10$secret")
	assert.Contains(t, rec.Body.String(), "abcd1234")
}

func TestGetKey_NotFound(t *testing.T) {
	svc := &mockAdminAuthSvc{}
	svc.On("GetKey", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/keys/missing", nil)
	req = withURLParam(req, "id", "missing")
	rec := httptest.NewRecorder()
	NewAdminKeyHandler(svc).Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRevokeKey(t *testing.T) {
	svc := &mockAdminAuthSvc{}
	svc.On("RevokeKey", mock.Anything, "k1").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/v1/admin/keys/k1", nil)
	req = withURLParam(req, "id", "k1")
	rec := httptest.NewRecorder()
	NewAdminKeyHandler(svc).Revoke(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
