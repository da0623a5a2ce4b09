package service

import "errors"

// Callback error taxonomy. The HTTP boundary maps these onto status codes;
// anything unmatched is treated as transient and surfaced as a server error
// so the gateway's retry policy re-delivers.
var (
	// ErrBadRequest: missing or malformed callback fields, no retry needed
	ErrBadRequest = errors.New("bad request")
	// ErrForbidden: signature mismatch, the payload is suspect
	ErrForbidden = errors.New("invalid signature")
	// ErrNotFound: unknown order, or empty cart at paid-time
	ErrNotFound = errors.New("not found")
	// ErrConflict: duplicate reconciliation of the same correlation id.
	// Acked as a successful no-op to stop gateway retries.
	ErrConflict = errors.New("already reconciled")
)
