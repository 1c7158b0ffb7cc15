package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/devjohxylon/waitlist-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// JoinEnvelope wraps a successful signup.
type JoinEnvelope struct {
	EntryID      string `json:"entry_id"`
	ReferralCode string `json:"referral_code"`
	Message      string `json:"message,omitempty"`
}

// PaginatedEntriesEnvelope wraps cursor-paginated admin listings.
type PaginatedEntriesEnvelope struct {
	Data       []domain.WaitlistEntry `json:"data"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

// TokenEnvelope wraps an admin session token.
type TokenEnvelope struct {
	Bearer    string `json:"Bearer"`
	ExpiresAt string `json:"expires_at"`
}

// CreatedKeyEnvelope carries the one-time raw key alongside its stored form.
type CreatedKeyEnvelope struct {
	Key    *domain.AdminKey `json:"key"`
	RawKey string           `json:"raw_key"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, Code: code})
}

// httpError maps a service error to a status and stable machine code. The
// code field is what clients branch on; the message is for humans.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "email address is not valid")
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, domain.ErrEmailExists):
		writeError(w, http.StatusConflict, "EMAIL_EXISTS", "email is already on the waitlist")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, slow down")
	case errors.Is(err, domain.ErrCodeExhausted):
		writeError(w, http.StatusServiceUnavailable, "ALLOCATION_FAILED", "could not allocate a referral code, try again")
	case errors.Is(err, domain.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "service temporarily unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}
