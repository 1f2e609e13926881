package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// NewPostID generates a short post identifier, e.g. "P3F2A1B9C".
func NewPostID() string {
	return "P" + shortID()
}

// NewLogID generates an audit log identifier, e.g. "LOG3F2A1B9C".
func NewLogID() string {
	return "LOG" + shortID()
}

// NewEventID generates an event identifier, e.g. "EVT3F2A1B9C".
func NewEventID() string {
	return "EVT" + shortID()
}

// NewResponseID generates a response template identifier.
func NewResponseID() string {
	return "RESP" + shortID()
}

func shortID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:8])
}

// HTMLToText strips markup from platform comment bodies, collapsing
// whitespace. Plain text passes through unchanged.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	text := doc.Text()
	return strings.Join(strings.Fields(text), " ")
}

var hashtagPattern = regexp.MustCompile(`#(\w+)`)

// ExtractHashtags returns up to limit hashtag words (without the '#')
// found in content, in order of appearance.
func ExtractHashtags(content string, limit int) []string {
	matches := hashtagPattern.FindAllStringSubmatch(content, -1)
	var tags []string
	for _, m := range matches {
		tags = append(tags, m[1])
		if len(tags) == limit {
			break
		}
	}
	return tags
}

// CampaignTag builds the campaign hashtag for an event title,
// e.g. "Go Webinar" -> "#GoWebinar".
func CampaignTag(title string) string {
	return fmt.Sprintf("#%s", strings.ReplaceAll(title, " ", ""))
}

// SplitTitleBody separates the first line of generated content from the
// rest, for platforms that publish title and body separately.
func SplitTitleBody(content string) (title, body string) {
	lines := strings.SplitN(content, "\n", 2)
	title = strings.TrimSpace(strings.TrimLeft(lines[0], "# "))
	if title == "" {
		title = "New Post"
	}
	if len(lines) > 1 {
		body = strings.TrimSpace(lines[1])
	} else {
		body = content
	}
	return title, body
}
