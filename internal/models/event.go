package models

import (
	"time"
)

// Event is a calendar event that posts are scheduled against. Rows are
// immutable once posts reference them, apart from accumulating new posts.
type Event struct {
	EventID          string    `gorm:"primaryKey;size:20" json:"event_id"`
	Title            string    `gorm:"not null;size:255" json:"title"`
	Description      string    `gorm:"type:text" json:"description"`
	StartTime        time.Time `gorm:"not null;index" json:"start_time"`
	RegistrationLink string    `gorm:"size:500" json:"registration_link"`
	IsRecorded       bool      `gorm:"default:false" json:"is_recorded"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Posts []ScheduledPost `gorm:"foreignKey:EventID" json:"posts,omitempty"`
}
