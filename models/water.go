package models

import (
	"time"
)

// WaterIntake tracks the current day's water consumption per hunter.
// CurrentGlasses is zeroed by the daily reset; the outgoing day is archived
// as a WaterIntakeDay row and StreakDays updated against the goal.
type WaterIntake struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`

	CurrentGlasses   int `json:"current_glasses" gorm:"default:0"`
	DailyGoalGlasses int `json:"daily_goal_glasses" gorm:"default:8"`
	CupSizeMl        int `json:"cup_size_ml" gorm:"default:250"`

	StreakDays int        `json:"streak_days" gorm:"default:0"`
	LastReset  *time.Time `json:"last_reset,omitempty"`

	Timestamps
}

// WaterIntakeDay is one archived day of water history.
type WaterIntakeDay struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index:idx_water_day,unique;not null" json:"external_user_id"`
	Day            string `gorm:"index:idx_water_day,unique;not null" json:"day"` // YYYY-MM-DD

	Glasses int `json:"glasses"`
	Goal    int `json:"goal"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
