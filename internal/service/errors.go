package service

import "errors"

var (
	// ErrSessionNotFound covers both absent sessions and sessions owned
	// by another user; callers cannot tell the two apart.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionFull is returned when the per-session message cap is
	// reached; nothing is persisted for the rejected turn.
	ErrSessionFull = errors.New("session full")

	ErrMessageNotFound = errors.New("message not found")
)
