package store

import "errors"

var (
	ErrVeinNotFound       = errors.New("vein not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrSessionNotFound    = errors.New("session not found")

	// ErrUnavailable wraps every backing-store failure (connection loss,
	// busy database, driver error).  Callers must treat it as an unknown
	// outcome for writes.
	ErrUnavailable = errors.New("store unavailable")
)
