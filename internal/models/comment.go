package models

import (
	"time"
)

type ResponseStatus string

const (
	ResponseStatusPending   ResponseStatus = "Pending"
	ResponseStatusResponded ResponseStatus = "Responded"
	ResponseStatusFailed    ResponseStatus = "Failed"
	ResponseStatusEscalated ResponseStatus = "Escalated"
)

// Terminal reports whether the comment is finished with automated handling:
// either answered, or escalated for a human after exhausting retries.
func (s ResponseStatus) Terminal() bool {
	return s == ResponseStatusResponded || s == ResponseStatusEscalated
}

type Classification string

const (
	ClassificationEventRelated  Classification = "event-related"
	ClassificationOffTopic      Classification = "off-topic"
	ClassificationSpam          Classification = "spam"
	ClassificationNegative      Classification = "negative"
	ClassificationAccessibility Classification = "accessibility"
)

// Comment is a platform comment on a published post. CommentID is the
// platform-native identifier. RetryCount only ever grows.
type Comment struct {
	CommentID      string         `gorm:"primaryKey;size:100" json:"comment_id"`
	PostID         string         `gorm:"size:20;index" json:"post_id"`
	UserName       string         `gorm:"size:100" json:"user_name"`
	Text           string         `gorm:"type:text" json:"text"`
	Timestamp      time.Time      `json:"timestamp"`
	ResponseStatus ResponseStatus `gorm:"size:50;default:'Pending';index" json:"response_status"`
	Classification Classification `gorm:"size:100" json:"classification"`
	RetryCount     int            `gorm:"default:0" json:"retry_count"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	Post *ScheduledPost `gorm:"foreignKey:PostID" json:"post,omitempty"`
}
