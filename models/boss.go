package models

import (
	"time"
)

// BossDefinition is a static catalog entry. IDs are slugs derived from the
// boss name so clients can reference bosses by stable human-readable keys.
// Targets and rewards grow linearly with the hunter's defeat count.
type BossDefinition struct {
	ID     string `gorm:"primaryKey" json:"id"` // e.g. "shadow-monarch"
	Name   string `gorm:"not null" json:"name"`
	Metric string `gorm:"not null" json:"metric"`

	BaseTargetCount int   `json:"base_target_count"`
	TimeLimitMs     int64 `json:"time_limit_ms"`

	RewardExp   int64  `json:"reward_exp"`
	RewardGold  int64  `json:"reward_gold"`
	RewardTitle string `json:"reward_title,omitempty"` // granted on first/any defeat if set

	ScalingTargetCount int   `json:"scaling_target_count"`
	ScalingRewardExp   int64 `json:"scaling_reward_exp"`
	ScalingRewardGold  int64 `json:"scaling_reward_gold"`

	IconURL   string    `gorm:"type:text" json:"icon_url,omitempty"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TimeLimit returns the battle duration as a time.Duration.
func (b *BossDefinition) TimeLimit() time.Duration {
	return time.Duration(b.TimeLimitMs) * time.Millisecond
}

// ActiveBattle is a running boss battle — at most one per (hunter, boss).
// Terminal transitions (won, timed out) delete the row outright, so the
// struct carries no soft-delete column.
//
// ProcessingPenalty is the timeout claim flag: an observer must win the
// conditional update setting it before applying the penalty, which keeps two
// near-simultaneous timeout detections from double-charging the hunter.
type ActiveBattle struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index:idx_active_battle_user_boss,unique;not null" json:"external_user_id"`
	BossID         string `gorm:"index:idx_active_battle_user_boss,unique;not null" json:"boss_id"`

	TargetCount  int `json:"target_count"`
	CurrentCount int `json:"current_count" gorm:"default:0"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `gorm:"index" json:"end_time"`

	PenaltyApplied    bool `gorm:"default:false" json:"penalty_applied"`
	ProcessingPenalty bool `gorm:"default:false" json:"processing_penalty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Expired reports whether the battle has run past its deadline.
func (b *ActiveBattle) Expired(now time.Time) bool {
	return now.After(b.EndTime)
}

// Remaining returns the time left before timeout (zero if already expired).
func (b *ActiveBattle) Remaining(now time.Time) time.Duration {
	if b.Expired(now) {
		return 0
	}
	return b.EndTime.Sub(now)
}
