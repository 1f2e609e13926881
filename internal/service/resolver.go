package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/mosinatet/commspec/internal/models"
)

var eventIDPattern = regexp.MustCompile(`(?i)\bEVT\d+\b`)

// Resolution is the outcome of matching a user request to an event.
type Resolution struct {
	Event      *models.Event
	Confidence float64
	Reasoning  string
}

// EventResolver picks the event a scheduling request refers to. It is a
// pure function over the supplied candidates: an explicit event identifier
// wins outright, otherwise candidates are scored against the query, and
// when nothing scores the most recent event is proposed as a fallback.
type EventResolver struct {
	loc *time.Location
	now func() time.Time
}

func NewEventResolver(loc *time.Location) *EventResolver {
	return &EventResolver{loc: loc, now: time.Now}
}

func (r *EventResolver) Resolve(query string, candidates []models.Event) (*Resolution, error) {
	if len(candidates) == 0 {
		return nil, ErrNoEvents
	}

	// An explicit identifier in the query short-circuits scoring.
	if id := eventIDPattern.FindString(query); id != "" {
		for i := range candidates {
			if strings.EqualFold(candidates[i].EventID, id) {
				return &Resolution{
					Event:      &candidates[i],
					Confidence: 0.9,
					Reasoning:  "matched explicit event identifier",
				}, nil
			}
		}
	}

	queryLower := strings.ToLower(query)
	today := dateOnly(r.now().In(r.loc))

	best := -1
	bestScore := 0
	for i := range candidates {
		score := r.score(queryLower, &candidates[i], today)
		// Ties break toward the most recent event date.
		if score > bestScore || (score == bestScore && best >= 0 && score > 0 &&
			candidates[i].StartTime.After(candidates[best].StartTime)) {
			best = i
			bestScore = score
		}
	}

	if best >= 0 && bestScore > 0 {
		confidence := float64(bestScore) / 100
		if confidence > 0.8 {
			confidence = 0.8
		}
		return &Resolution{
			Event:      &candidates[best],
			Confidence: confidence,
			Reasoning:  "fuzzy matched against query",
		}, nil
	}

	// Nothing scored: propose the most recent event rather than failing.
	recent := 0
	for i := range candidates {
		if candidates[i].StartTime.After(candidates[recent].StartTime) {
			recent = i
		}
	}
	return &Resolution{
		Event:      &candidates[recent],
		Confidence: 0.3,
		Reasoning:  "no match, using most recent event",
	}, nil
}

func (r *EventResolver) score(queryLower string, event *models.Event, today time.Time) int {
	score := 0
	title := strings.ToLower(event.Title)
	description := strings.ToLower(event.Description)

	if title != "" && (strings.Contains(queryLower, title) || strings.Contains(title, queryLower)) {
		score += 100
	}

	for _, word := range strings.Fields(title) {
		if len(word) > 3 && strings.Contains(queryLower, word) {
			score += 20
		}
	}

	if description != "" {
		for _, word := range strings.Fields(queryLower) {
			if len(word) > 3 && strings.Contains(description, word) {
				score += 10
				break
			}
		}
	}

	eventDate := dateOnly(event.StartTime.In(r.loc))
	if strings.Contains(queryLower, "today") && eventDate.Equal(today) {
		score += 50
	} else if strings.Contains(queryLower, "tomorrow") && eventDate.Equal(today.AddDate(0, 0, 1)) {
		score += 50
	} else if strings.Contains(queryLower, "this week") {
		days := int(eventDate.Sub(today).Hours() / 24)
		if days >= 0 && days <= 7 {
			score += 30
		}
	}

	// Recency bonus for events within the last month.
	if days := int(today.Sub(eventDate).Hours() / 24); days >= 0 && days <= 30 {
		score += 5
	}

	return score
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
