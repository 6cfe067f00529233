package room

import "errors"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrAlreadyInRoom = errors.New("already in a room")
	ErrNotInRoom     = errors.New("not in a room")
	ErrEmptyContent  = errors.New("empty message content")
	// ErrNotOwner is never surfaced to the sender: playback control from a
	// non-owner is dropped without an error frame.
	ErrNotOwner = errors.New("not the room owner")
)
