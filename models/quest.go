package models

import (
	"time"
)

// Quest is a hunter-owned task with a numeric target. Daily quests revert to
// incomplete at each calendar-day boundary; normal quests are one-shot and the
// row is removed on completion.
type Quest struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Metric      string `gorm:"not null" json:"metric"` // e.g. "pushups", "pages", "km"

	TargetCount  int  `json:"target_count"`
	CurrentCount int  `json:"current_count" gorm:"default:0"`
	Daily        bool `gorm:"index;default:false" json:"daily"`
	Completed    bool `gorm:"default:false" json:"completed"`

	LastCompletion *time.Time `json:"last_completion,omitempty"`
	LastReset      *time.Time `json:"last_reset,omitempty"` // daily quests only

	Timestamps
}
