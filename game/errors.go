package game

import "errors"

var (
	ErrHubClosed       = errors.New("hub-closed")
	ErrNotJoined       = errors.New("not-joined")
	ErrAlreadyJoined   = errors.New("already-joined")
	ErrMissingUsername = errors.New("missing-username")
	ErrRoomNotFound    = errors.New("room-not-found")
	ErrEmptyMessage    = errors.New("empty-message")
)
