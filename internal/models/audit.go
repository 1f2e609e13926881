package models

import (
	"time"
)

// AuditLog is the append-only record of every state transition.
type AuditLog struct {
	LogID      string    `gorm:"primaryKey;size:20" json:"log_id"`
	Action     string    `gorm:"not null;size:100;index" json:"action"`
	EntityType string    `gorm:"not null;size:50" json:"entity_type"`
	EntityID   string    `gorm:"size:100;index" json:"entity_id"`
	Details    string    `gorm:"type:text" json:"details"`
	Status     string    `gorm:"size:50;default:'success'" json:"status"`
	Timestamp  time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

// ResponseTemplate is a canned reply keyed by trigger type, managed
// through the API and consulted before generated responses.
type ResponseTemplate struct {
	ResponseID   string    `gorm:"primaryKey;size:20" json:"response_id"`
	TriggerType  string    `gorm:"size:100" json:"trigger_type"`
	KeywordMatch string    `gorm:"size:100" json:"keyword_match"`
	ResponseText string    `gorm:"type:text" json:"response_text"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
