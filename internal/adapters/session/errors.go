package session

import "errors"

// Sentinel errors for session handling.
var (
	ErrNoSession    = errors.New("no session")
	ErrInvalidToken = errors.New("invalid session token")
	ErrRevoked      = errors.New("session revoked")
	ErrStore        = errors.New("revocation store unavailable")
	ErrEmptySecret  = errors.New("session secret is empty")
	ErrAnonymous    = errors.New("cannot issue a session without a user id")
)
