package platform

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RawComment is a comment as returned by a platform, before normalization.
type RawComment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Adapter is the unified capability interface for all platforms.
type Adapter interface {
	Name() string

	// Publish posts content and returns the platform-native post ID.
	Publish(ctx context.Context, content string) (string, error)

	// FetchComments returns all comments on a published post.
	FetchComments(ctx context.Context, platformPostID string) ([]RawComment, error)

	// Reply answers a comment and returns the platform-native reply ID.
	Reply(ctx context.Context, commentID, text string) (string, error)
}

// ErrUnsupported marks a capability a platform's API does not offer.
var ErrUnsupported = errors.New("operation not supported by platform")

// Error is a platform adapter failure: network, auth or rate limiting.
// Posts and comments touched by one are marked Failed rather than
// retried in place.
type Error struct {
	Platform string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Platform, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
