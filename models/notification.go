package models

import (
	"time"
)

// Notification kinds emitted by the engine.
const (
	NotificationPenalty      = "penalty"
	NotificationLevelUp      = "level_up"
	NotificationRankUp       = "rank_up"
	NotificationQuestDone    = "quest_completed"
	NotificationBossWon      = "boss_won"
	NotificationBossTimeout  = "boss_timeout"
	NotificationAchievement  = "achievement"
	NotificationDailySummary = "daily_summary"
	NotificationWaterGoal    = "water_goal"
)

// Notification is append-only: rows are only created, have their Read flag
// flipped, or are bulk-deleted by the owner.
type Notification struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`

	Type    string `gorm:"index;not null" json:"type"`
	Message string `gorm:"type:text;not null" json:"message"`
	Details string `gorm:"type:jsonb" json:"details,omitempty"` // JSON payload for the UI

	Read      bool      `gorm:"default:false;index" json:"read"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
