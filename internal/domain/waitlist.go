package domain

import "time"

// Waitlist entry statuses.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ValidStatus reports whether s is one of the known entry statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusVerified, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// WaitlistEntry is one signup on the waitlist. The normalized email is the
// partition key and is unique; the referral code is unique once assigned and
// never reassigned.
type WaitlistEntry struct {
	EntryID      string    `json:"id" dynamodbav:"entry_id"`
	Email        string    `json:"email" dynamodbav:"email"`
	ReferralCode string    `json:"referral_code,omitempty" dynamodbav:"referral_code,omitempty"`
	// ReferredBy is stored as presented. It is not checked against existing
	// codes at write time; dangling references are tolerated.
	ReferredBy string    `json:"referred_by,omitempty" dynamodbav:"referred_by,omitempty"`
	Status     string    `json:"status" dynamodbav:"status"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// JoinRequest is the public signup payload.
type JoinRequest struct {
	Email      string `json:"email" validate:"required"`
	ReferredBy string `json:"referred_by" validate:"omitempty,max=16"`
}

// JoinResult is returned to a successful signup.
type JoinResult struct {
	EntryID      string `json:"id"`
	ReferralCode string `json:"referral_code"`
}

// WaitlistStats aggregates signup counts for the admin dashboard.
type WaitlistStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// UpdateEntryRequest mutates a single entry from the admin console.
type UpdateEntryRequest struct {
	Status string `json:"status" validate:"required"`
}

// BulkActionRequest applies one action to a set of entries.
type BulkActionRequest struct {
	Action string   `json:"action" validate:"required,oneof=approve reject delete"`
	IDs    []string `json:"ids" validate:"required,min=1,max=100"`
}
