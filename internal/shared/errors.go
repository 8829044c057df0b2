package shared

import "errors"

var (
	// ErrUnauthenticated indicates a missing, undecodable or expired credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates a valid identity with insufficient permission or a
	// standing policy violation.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates a uniqueness or reference violation on a write.
	ErrConflict = errors.New("conflict")
	// ErrNotFound indicates the target id or name does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed caller input rejected before any store access.
	ErrValidation = errors.New("validation failed")
	// ErrExecutionFailed indicates the backing store rejected a raw statement.
	// The wrapped detail is operator-authored text and must be treated as opaque.
	ErrExecutionFailed = errors.New("execution failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRateLimited indicates too many attempts within the window.
	ErrRateLimited = errors.New("rate limited")
)
