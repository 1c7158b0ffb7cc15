package handler

import (
	"encoding/json"
	"net/http"

	"github.com/devjohxylon/waitlist-api/internal/application/waitlist"
	"github.com/devjohxylon/waitlist-api/internal/domain"
	"github.com/devjohxylon/waitlist-api/internal/transport/http/middleware"
)

// WaitlistHandler handles the public signup endpoints.
type WaitlistHandler struct {
	svc waitlist.Service
}

func NewWaitlistHandler(svc waitlist.Service) *WaitlistHandler { return &WaitlistHandler{svc: svc} }

func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req domain.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	res, err := h.svc.Join(r.Context(), req, middleware.RealIP(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, JoinEnvelope{
		EntryID:      res.EntryID,
		ReferralCode: res.ReferralCode,
		Message:      "you're on the list",
	})
}

// Count is the public counter shown on the landing page.
func (h *WaitlistHandler) Count(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.Count(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"total": total})
}
