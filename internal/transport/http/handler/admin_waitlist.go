package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/devjohxylon/waitlist-api/internal/application/waitlist"
	"github.com/devjohxylon/waitlist-api/internal/domain"
)

// AdminWaitlistHandler handles the admin console endpoints for waitlist
// entries.
type AdminWaitlistHandler struct {
	svc waitlist.Service
}

func NewAdminWaitlistHandler(svc waitlist.Service) *AdminWaitlistHandler {
	return &AdminWaitlistHandler{svc: svc}
}

func (h *AdminWaitlistHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	entries, next, err := h.svc.List(r.Context(), limit, q.Get("cursor"), q.Get("status"))
	if err != nil {
		httpError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.WaitlistEntry{}
	}
	writeJSON(w, http.StatusOK, PaginatedEntriesEnvelope{Data: entries, NextCursor: next})
}

func (h *AdminWaitlistHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Lookup resolves the entry that owns a referral code.
func (h *AdminWaitlistHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.FindByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *AdminWaitlistHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	e, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *AdminWaitlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "entry deleted"})
}

func (h *AdminWaitlistHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	affected, err := h.svc.BulkAction(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"affected": affected})
}

// Export snapshots the waitlist to CSV in object storage and returns the key.
func (h *AdminWaitlistHandler) Export(w http.ResponseWriter, r *http.Request) {
	key, err := h.svc.ExportCSV(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// DeleteExport removes a CSV snapshot from object storage.
func (h *AdminWaitlistHandler) DeleteExport(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "key query parameter is required")
		return
	}
	if err := h.svc.DeleteExport(r.Context(), key); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "export deleted"})
}

// DownloadExport streams a previously created CSV export.
func (h *AdminWaitlistHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "key query parameter is required")
		return
	}
	body, err := h.svc.DownloadExport(r.Context(), key)
	if err != nil {
		httpError(w, err)
		return
	}
	defer body.Close()
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="waitlist.csv"`)
	_, _ = io.Copy(w, body)
}
