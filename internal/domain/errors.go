package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes and stable
// error codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidEmail = errors.New("invalid email")
	ErrRateLimited  = errors.New("rate limited")
	// ErrCodeTaken means another entry claimed a referral code first. The
	// allocator treats it as a lost race and retries with a fresh code.
	ErrCodeTaken = errors.New("referral code taken")
	// ErrCodeExhausted means the referral code allocator ran out of attempts
	// without finding a free code. Retryable from the caller's side.
	ErrCodeExhausted = errors.New("referral code allocation exhausted")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrBadRequest    = errors.New("bad request")
	// ErrUnavailable marks backend failures (datastore unreachable, timeouts)
	// so clients can tell "try again later" from "this action is invalid".
	ErrUnavailable = errors.New("backend unavailable")
)
