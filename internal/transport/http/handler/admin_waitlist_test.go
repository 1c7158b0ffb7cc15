package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/devjohxylon/waitlist-api/internal/domain"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestAdminList_PassesFilters(t *testing.T) {
	svc := &mockWaitlistSvc{}
	svc.On("List", mock.Anything, 25, "abc", domain.StatusApproved).
		Return([]domain.WaitlistEntry{{EntryID: "01E", Email: "a@x.com"}}, "next", nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/waitlist?limit=25&cursor=abc&status=approved", nil)
	rec := httptest.NewRecorder()
	NewAdminWaitlistHandler(svc).List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var env PaginatedEntriesEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Len(t, env.Data, 1)
	assert.Equal(t, "next", env.NextCursor)
	svc.AssertExpectations(t)
}

func TestAdminStats(t *testing.T) {
	svc := &mockWaitlistSvc{}
	svc.On("Stats", mock.Anything).Return(&domain.WaitlistStats{
		Total:    3,
		ByStatus: map[string]int{domain.StatusPending: 3},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/waitlist/stats", nil)
	rec := httptest.NewRecorder()
	NewAdminWaitlistHandler(svc).Stats(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var stats domain.WaitlistStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 3, stats.Total)
}

func TestAdminLookup_ByReferralCode(t *testing.T) {
	svc := &mockWaitlistSvc{}
	svc.On("FindByCode", mock.Anything, "AAAA2222").
		Return(&domain.WaitlistEntry{EntryID: "01E", Email: "a@x.com", ReferralCode: "AAAA2222"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/waitlist/codes/AAAA2222", nil)
	req = withURLParam(req, "code", "AAAA2222")
	rec := httptest.NewRecorder()
	NewAdminWaitlistHandler(svc).Lookup(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var e domain.WaitlistEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
	assert.Equal(t, "a@x.com", e.Email)
}

func TestAdminUpdate_Status(t *testing.T) {
	svc := &mockWaitlistSvc{}
	svc.On("UpdateStatus", mock.Anything, "01E", domain.UpdateEntryRequest{Status: domain.StatusApproved}).
		Return(&domain.WaitlistEntry{EntryID: "01E", Status: domain.StatusApproved}, nil)

	req := httptest.NewRequest(http.MethodPatch, "/v1/admin/waitlist/01E", bytes.NewBufferString(`{"status":"approved"}`))
	req = withURLParam(req, "id", "01E")
	rec := httptest.NewRecorder()
	NewAdminWaitlistHandler(svc).Update(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestAdminUpdate_UnknownEntry(t *testing.T) {
	svc := &mockWaitlistSvc{}
	svc.On("UpdateStatus", mock.Anything, "gone", mock.Anything).Return(nil, domain.ErrNotFound)

	req := httptest.NewRequest(http.MethodPatch, "/v1/admin/waitlist/gone", bytes.NewBufferString(`{"status":"approved"}`))
	req = withURLParam(req, "id", "gone")
	rec := httptest.NewRecorder()
	NewAdminWaitlistHandler(svc).Update(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, rec).Code)
}

func TestAdminBulk(t *testing.T) {
	svc := &mockWaitlistSvc{}
	svc.On("BulkAction", mock.Anything, domain.BulkActionRequest{Action: "approve", IDs: []string{"a", "b"}}).
		Return(2, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/waitlist/bulk", bytes.NewBufferString(`{"action":"approve","ids":["a","b"]}`))
	rec := httptest.NewRecorder()
	NewAdminWaitlistHandler(svc).Bulk(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 2, body["affected"])
}

func TestAdminExport_ReturnsKey(t *testing.T) {
	svc := &mockWaitlistSvc{}
	svc.On("ExportCSV", mock.Anything).Return("exports/waitlist-01E.csv", nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/waitlist/exports", nil)
	rec := httptest.NewRecorder()
	NewAdminWaitlistHandler(svc).Export(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "exports/waitlist-01E.csv", body["key"])
}

func TestAdminDownloadExport_StreamsCSV(t *testing.T) {
	svc := &mockWaitlistSvc{}
	svc.On("DownloadExport", mock.Anything, "exports/x.csv").
		Return(io.NopCloser(strings.NewReader("email,status\na@x.com,pending\n")), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/waitlist/exports?key=exports/x.csv", nil)
	rec := httptest.NewRecorder()
	NewAdminWaitlistHandler(svc).DownloadExport(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "a@x.com")
}

func TestAdminDeleteExport(t *testing.T) {
	svc := &mockWaitlistSvc{}
	svc.On("DeleteExport", mock.Anything, "exports/x.csv").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/v1/admin/waitlist/exports?key=exports/x.csv", nil)
	rec := httptest.NewRecorder()
	NewAdminWaitlistHandler(svc).DeleteExport(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestAdminDownloadExport_MissingKey(t *testing.T) {
	svc := &mockWaitlistSvc{}
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/waitlist/exports", nil)
	rec := httptest.NewRecorder()
	NewAdminWaitlistHandler(svc).DownloadExport(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "DownloadExport", mock.Anything, mock.Anything)
}
