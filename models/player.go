package models

import (
	"time"

	"gorm.io/gorm"
)

// Rank is the coarse hunter tier gating content. One-way: a hunter never
// drops back to a lower rank short of an explicit account reset.
type Rank string

const (
	RankE Rank = "E"
	RankD Rank = "D"
	RankC Rank = "C"
	RankB Rank = "B"
	RankA Rank = "A"
	RankS Rank = "S"
)

var rankOrder = map[Rank]int{
	RankE: 1,
	RankD: 2,
	RankC: 3,
	RankB: 4,
	RankA: 5,
	RankS: 6,
}

// RankOrdinal returns the numeric position of a rank (E=1 … S=6).
// Unknown ranks map to 0 so they always compare below E.
func RankOrdinal(r Rank) int {
	return rankOrder[r]
}

// NextRank returns the rank above r, or false if r is already S (or unknown).
func NextRank(r Rank) (Rank, bool) {
	switch r {
	case RankE:
		return RankD, true
	case RankD:
		return RankC, true
	case RankC:
		return RankB, true
	case RankB:
		return RankA, true
	case RankA:
		return RankS, true
	default:
		return r, false
	}
}

// HunterProfile is the authoritative per-user ledger (denormalized for performance).
// ExpNeeded mirrors the curve output for Level and must be recomputed inside
// the same transaction as any Level change.
type HunterProfile struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to profile service

	// Core progression
	Level     int    `json:"level" gorm:"default:1"`
	Exp       int64  `json:"exp" gorm:"default:0"`
	ExpNeeded int64  `json:"exp_needed" gorm:"default:0"`
	Gold      int64  `json:"gold" gorm:"default:0"`
	Rank      Rank   `json:"rank" gorm:"type:varchar(2);default:'E'"`
	Title     string `json:"title"`

	// Activity counters
	Streak          int   `json:"streak" gorm:"default:0"`           // consecutive days with a daily completion
	QuestsCompleted int64 `json:"quests_completed" gorm:"default:0"` // lifetime, never decremented

	// Milestones
	LastDailyReset *time.Time `json:"last_daily_reset,omitempty"`
	LastPenalty    *time.Time `json:"last_penalty,omitempty"`
	LastLevelUpAt  *time.Time `json:"last_level_up_at,omitempty"`
	LastRankUpAt   *time.Time `json:"last_rank_up_at,omitempty"`

	Timestamps
}

// BossRecord tallies how many times a hunter has defeated a boss.
// The count drives target and reward scaling for the next battle.
type BossRecord struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index:idx_boss_record_user_boss,unique;not null" json:"external_user_id"`
	BossID         string `gorm:"index:idx_boss_record_user_boss,unique;not null" json:"boss_id"`
	DefeatCount    int64  `json:"defeat_count" gorm:"default:0"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
