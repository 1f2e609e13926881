package service

import (
	"errors"
)

var (
	// ErrNotFound is returned when an entity does not exist, or a post has
	// already left the Scheduled state for operations that require it.
	ErrNotFound = errors.New("not found")

	// ErrNoEvents is returned by event resolution when no candidate events
	// exist at all. With any candidates present, resolution always proposes
	// something.
	ErrNoEvents = errors.New("no events available")

	// ErrPostTerminal is returned when an edit or cancel targets a post
	// that already reached Published, Failed or Cancelled.
	ErrPostTerminal = errors.New("post is in a terminal state")
)
