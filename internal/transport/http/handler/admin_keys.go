package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/devjohxylon/waitlist-api/internal/application/adminauth"
	"github.com/devjohxylon/waitlist-api/internal/domain"
)

// AdminKeyHandler handles admin key lifecycle and session login.
type AdminKeyHandler struct {
	svc adminauth.Service
}

func NewAdminKeyHandler(svc adminauth.Service) *AdminKeyHandler { return &AdminKeyHandler{svc: svc} }

// Login exchanges a raw admin key for a short-lived Bearer token.
func (h *AdminKeyHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	token, expiresAt, err := h.svc.Login(r.Context(), req.Key)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenEnvelope{
		Bearer:    token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *AdminKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAdminKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	key, raw, err := h.svc.CreateKey(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedKeyEnvelope{Key: key, RawKey: raw})
}

func (h *AdminKeyHandler) Get(w http.ResponseWriter, r *http.Request) {
	key, err := h.svc.GetKey(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, key)
}

func (h *AdminKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.svc.ListKeys(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	if keys == nil {
		keys = []domain.AdminKey{}
	}
	writeJSON(w, http.StatusOK, map[string][]domain.AdminKey{"data": keys})
}

func (h *AdminKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RevokeKey(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "key revoked"})
}
