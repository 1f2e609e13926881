package models

import (
	"time"
)

type PostStatus string

const (
	PostStatusScheduled PostStatus = "Scheduled"
	PostStatusPublished PostStatus = "Published"
	PostStatusFailed    PostStatus = "Failed"
	PostStatusCancelled PostStatus = "Cancelled"
)

// Terminal reports whether the status admits no further transitions.
// Scheduled is the only live state; everything else is kept for audit.
func (s PostStatus) Terminal() bool {
	return s != PostStatusScheduled
}

// ScheduledPost is one unit of publishable content bound to a platform.
// Rows are never physically deleted; cancellation is a terminal status.
// PlatformPostID is set exactly when Status is Published.
type ScheduledPost struct {
	PostID         string     `gorm:"primaryKey;size:20" json:"post_id"`
	Platform       string     `gorm:"not null;size:100;index" json:"platform"`
	ScheduledTime  time.Time  `gorm:"not null;index" json:"scheduled_time"`
	Content        string     `gorm:"type:text" json:"content"`
	CampaignTag    string     `gorm:"size:100" json:"campaign_tag"`
	Status         PostStatus `gorm:"size:50;default:'Scheduled';index" json:"status"`
	EventID        string     `gorm:"size:20;index" json:"event_id"`
	PlatformPostID *string    `gorm:"size:100" json:"platform_post_id"`
	PublishedAt    *time.Time `json:"published_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
}
