package domain

import "time"

// AdminKey is a privileged API credential. Only the bcrypt hash of the raw
// key is persisted; the raw key is shown exactly once at creation time.
type AdminKey struct {
	KeyID      string     `json:"id" dynamodbav:"key_id"`
	Name       string     `json:"name" dynamodbav:"name"`
	KeyPrefix  string     `json:"key_prefix" dynamodbav:"key_prefix"`
	KeyHash    string     `json:"-" dynamodbav:"key_hash"`
	Revoked    bool       `json:"revoked" dynamodbav:"revoked"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" dynamodbav:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" dynamodbav:"created_at"`
}

// CreateAdminKeyRequest names a new key.
type CreateAdminKeyRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}
