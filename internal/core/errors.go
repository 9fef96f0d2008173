package core

import "errors"

var (
	// ErrAlreadyConnected is returned by Connect while a session is active.
	ErrAlreadyConnected = errors.New("session already connected")
	// ErrSessionNotReady rejects control actions while disconnected or reconnecting.
	ErrSessionNotReady = errors.New("session not ready")
	// ErrToggleInProgress rejects a second toggle of the same source kind
	// while one is in flight. The caller retries.
	ErrToggleInProgress = errors.New("toggle already in progress")
)
