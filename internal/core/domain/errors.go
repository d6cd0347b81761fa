package domain

import "errors"

var (
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrNotStreaming   = errors.New("no active stream")
	ErrAlreadyLive    = errors.New("a live session already exists")
	ErrSessionBusy    = errors.New("a session transition is in flight")
	ErrRecordNotFound = errors.New("session record not found")
	ErrNotInitialized = errors.New("store not initialized")
)
