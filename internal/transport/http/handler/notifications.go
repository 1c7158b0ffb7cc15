package handler

import (
	"encoding/json"
	"net/http"

	"github.com/devjohxylon/waitlist-api/internal/application/dispatch"
	"github.com/devjohxylon/waitlist-api/internal/domain"
)

// NotificationHandler handles bulk announcement sends.
type NotificationHandler struct {
	svc dispatch.Service
}

func NewNotificationHandler(svc dispatch.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	res, err := h.svc.Send(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
