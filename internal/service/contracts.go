package service

import (
	"context"
	"time"

	"github.com/mosinatet/commspec/internal/models"
)

// DateResolver maps a natural-language scheduling request to a concrete
// timestamp. The immediate flag is set when the user asked for the post
// to go out right away.
type DateResolver interface {
	ResolveDateTime(ctx context.Context, text string) (at time.Time, immediate bool, err error)
}

// Classifier assigns a category and confidence to free comment text.
type Classifier interface {
	Classify(ctx context.Context, text string, event *models.Event) (models.Classification, float64, error)
}

// Responder generates a reply to a classified comment using the owning
// event's metadata.
type Responder interface {
	Respond(ctx context.Context, text string, classification models.Classification, event *models.Event) (string, error)
}

// ContentGenerator produces platform-shaped post content for an event.
type ContentGenerator interface {
	Generate(ctx context.Context, platformName string, event *models.Event) (string, error)
}
