package agent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mosinatet/commspec/internal/models"
	"github.com/mosinatet/commspec/pkg/util"
)

var (
	immediateKeywords = []string{"immediately", "right now", "asap", "as soon as possible", "now"}

	spamIndicators = []string{
		"buy now", "click here", "make money", "earn cash",
		"free money", "lottery", "winner", "urgent", "limited time",
	}
	negativeIndicators = []string{
		"terrible", "awful", "horrible", "worst",
		"hate", "disappointed", "angry", "frustrated",
	}
	accessibilityKeywords = []string{
		"accessibility", "accessible", "caption", "subtitle",
		"transcript", "screen reader", "sign language", "hearing", "wheelchair",
	}
	eventKeywords = []string{
		"event", "webinar", "session", "register", "registration",
		"recording", "recorded", "link", "when", "where", "time", "agenda",
	}

	clockPattern = regexp.MustCompile(`(?i)\bat\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
)

// Agent is a deterministic rule engine behind the Classifier, Responder,
// DateResolver and ContentGenerator contracts. Keyword lists and phrase
// templates replace a model call, so scheduling and comment handling stay
// reproducible and testable.
type Agent struct {
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

func New(loc *time.Location, logger *zap.Logger) *Agent {
	return &Agent{logger: logger, loc: loc, now: time.Now}
}

// ResolveDateTime parses a natural-language scheduling request into a
// concrete local timestamp. "Post now" style requests land two minutes
// out so the timer still passes through the scheduler.
func (a *Agent) ResolveDateTime(_ context.Context, text string) (time.Time, bool, error) {
	lower := strings.ToLower(text)
	now := a.now().In(a.loc)

	for _, kw := range immediateKeywords {
		if strings.Contains(lower, kw) {
			at := now.Add(2 * time.Minute)
			a.logger.Info("Immediate posting requested", zap.Time("at", at))
			return at, true, nil
		}
	}

	day := now
	switch {
	case strings.Contains(lower, "tomorrow"):
		day = now.AddDate(0, 0, 1)
	case strings.Contains(lower, "today"), strings.Contains(lower, "tonight"),
		strings.Contains(lower, "this morning"), strings.Contains(lower, "this afternoon"),
		strings.Contains(lower, "this evening"):
		day = now
	}

	hour, minute := 10, 0
	switch {
	case strings.Contains(lower, "morning"):
		hour = 10
	case strings.Contains(lower, "afternoon"):
		hour = 15
	case strings.Contains(lower, "evening"), strings.Contains(lower, "tonight"):
		hour = 19
	}

	if m := clockPattern.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		} else {
			minute = 0
		}
		switch strings.ToLower(m[3]) {
		case "pm":
			if h < 12 {
				h += 12
			}
		case "am":
			if h == 12 {
				h = 0
			}
		}
		if h >= 0 && h <= 23 {
			hour = h
		}
	}

	at := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, a.loc)
	// A resolved time already behind us slips to the same clock time
	// tomorrow rather than firing instantly.
	if at.Before(now) && !strings.Contains(lower, "today") {
		at = at.AddDate(0, 0, 1)
	}
	return at, false, nil
}

// Classify buckets comment text by keyword evidence. Spam and negative
// indicators override topical matches; with no evidence either way the
// comment is assumed to be about the event.
func (a *Agent) Classify(_ context.Context, text string, _ *models.Event) (models.Classification, float64, error) {
	if strings.TrimSpace(text) == "" {
		return "", 0, fmt.Errorf("empty comment text")
	}
	lower := strings.ToLower(text)

	for _, indicator := range spamIndicators {
		if strings.Contains(lower, indicator) {
			return models.ClassificationSpam, 0.9, nil
		}
	}
	for _, kw := range accessibilityKeywords {
		if strings.Contains(lower, kw) {
			return models.ClassificationAccessibility, 0.85, nil
		}
	}

	classification, confidence := models.ClassificationOffTopic, 0.5
	for _, kw := range eventKeywords {
		if strings.Contains(lower, kw) {
			classification, confidence = models.ClassificationEventRelated, 0.7
			break
		}
	}
	for _, indicator := range negativeIndicators {
		if strings.Contains(lower, indicator) {
			if classification == models.ClassificationEventRelated {
				return models.ClassificationNegative, 0.8, nil
			}
			return models.ClassificationNegative, 0.6, nil
		}
	}
	return classification, confidence, nil
}

// Respond picks a reply template for the classification and fills in the
// event's registration link and recording status when available.
func (a *Agent) Respond(_ context.Context, _ string, classification models.Classification, event *models.Event) (string, error) {
	title, link, recorded := "our event", "", false
	if event != nil {
		if event.Title != "" {
			title = event.Title
		}
		link = event.RegistrationLink
		recorded = event.IsRecorded
	}

	switch classification {
	case models.ClassificationEventRelated:
		var b strings.Builder
		fmt.Fprintf(&b, "Thanks for your interest in %s!", title)
		if link != "" {
			fmt.Fprintf(&b, " You can register here: %s.", link)
		}
		if recorded {
			b.WriteString(" The session will be recorded and shared with all registrants.")
		}
		return b.String(), nil
	case models.ClassificationAccessibility:
		msg := fmt.Sprintf("Thanks for asking! We want %s to be accessible to everyone.", title)
		if recorded {
			msg += " A recording with captions will be available afterwards."
		}
		msg += " Please reach out to the organizers for specific accommodations."
		return msg, nil
	case models.ClassificationNegative:
		return "We're sorry to hear that. Your feedback matters to us and we'll pass it along to the team.", nil
	case models.ClassificationOffTopic:
		return fmt.Sprintf("Thanks for the comment! If you have any questions about %s, we're happy to help.", title), nil
	case models.ClassificationSpam:
		return "", fmt.Errorf("no response generated for spam")
	default:
		return "Thank you for your comment! We'll get back to you soon.", nil
	}
}

// Generate renders post content shaped for the target platform: a
// markdown article for Dev.to, a short announcement for Twitter, plain
// professional copy for anything else.
func (a *Agent) Generate(_ context.Context, platformName string, event *models.Event) (string, error) {
	if event == nil {
		return "", fmt.Errorf("no event to generate content for")
	}
	tag := util.CampaignTag(event.Title)
	date := event.StartTime.In(a.loc).Format("Monday, January 2 2006 at 3:04 PM MST")

	switch strings.ToLower(platformName) {
	case "devto":
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", event.Title)
		if event.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", event.Description)
		}
		fmt.Fprintf(&b, "Join us on %s.\n\n", date)
		if event.RegistrationLink != "" {
			fmt.Fprintf(&b, "Register here: %s\n\n", event.RegistrationLink)
		}
		if event.IsRecorded {
			b.WriteString("Can't make it live? The session will be recorded.\n\n")
		}
		fmt.Fprintf(&b, "%s #webinar #community", tag)
		return b.String(), nil
	case "twitter":
		msg := fmt.Sprintf("%s is happening on %s!", event.Title, event.StartTime.In(a.loc).Format("Jan 2, 3:04 PM"))
		if event.RegistrationLink != "" {
			msg += " Register: " + event.RegistrationLink
		}
		msg += " " + tag
		if n := []rune(msg); len(n) > 280 {
			msg = string(n[:277]) + "..."
		}
		return msg, nil
	default:
		msg := fmt.Sprintf("%s\n\n%s\n\nJoin us on %s.", event.Title, event.Description, date)
		if event.RegistrationLink != "" {
			msg += "\nRegister: " + event.RegistrationLink
		}
		msg += "\n\n" + tag
		return msg, nil
	}
}
