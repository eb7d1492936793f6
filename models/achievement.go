package models

import (
	"time"
)

// AchievementType selects which ledger value a definition is evaluated against.
type AchievementType string

const (
	AchievementLevel           AchievementType = "level"
	AchievementQuestsCompleted AchievementType = "quests_completed"
	AchievementDailyStreak     AchievementType = "daily_streak"
	AchievementWaterStreak     AchievementType = "water_streak"
	AchievementTotalGold       AchievementType = "total_gold"
	AchievementRankType        AchievementType = "rank"
)

// AchievementDefinition: static config (seeded at boot, admin-managed)
type AchievementDefinition struct {
	ID          string          `gorm:"primaryKey" json:"id"` // slug, e.g. "quest-veteran"
	Name        string          `gorm:"not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Type        AchievementType `gorm:"type:varchar(32);not null" json:"type"`
	IconURL     string          `gorm:"type:text" json:"icon_url,omitempty"`

	Ranks []AchievementRank `gorm:"foreignKey:AchievementID;references:ID" json:"ranks"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// AchievementRank is one tier within a multi-tier achievement. Requirement is
// compared against the value selected by the parent definition's Type; for
// rank-type achievements it holds the rank ordinal (E=1 … S=6).
type AchievementRank struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	AchievementID string `gorm:"index:idx_achievement_rank,unique;not null" json:"achievement_id"`
	Rank          int    `gorm:"index:idx_achievement_rank,unique;not null" json:"rank"` // 1-based

	Requirement int64 `json:"requirement"`
	RewardExp   int64 `json:"reward_exp"`
	RewardGold  int64 `json:"reward_gold"`
}

// PlayerAchievement: per-hunter progress through a definition's tiers.
// UnlockedAt is stamped only on the 0→1 transition.
type PlayerAchievement struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index:idx_player_achievement,unique;not null" json:"external_user_id"`
	AchievementID  string `gorm:"index:idx_player_achievement,unique;not null" json:"achievement_id"`

	CurrentRank int        `json:"current_rank" gorm:"default:0"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`

	Timestamps
}

// DefaultAchievements is the seed catalog installed when the table is empty.
var DefaultAchievements = []AchievementDefinition{
	{
		ID: "rising-hunter", Name: "Rising Hunter", Type: AchievementLevel,
		Description: "Grow your level",
		Ranks: []AchievementRank{
			{Rank: 1, Requirement: 5, RewardExp: 50, RewardGold: 25},
			{Rank: 2, Requirement: 10, RewardExp: 100, RewardGold: 50},
			{Rank: 3, Requirement: 25, RewardExp: 250, RewardGold: 125},
			{Rank: 4, Requirement: 50, RewardExp: 500, RewardGold: 250},
		},
	},
	{
		ID: "quest-veteran", Name: "Quest Veteran", Type: AchievementQuestsCompleted,
		Description: "Complete quests",
		Ranks: []AchievementRank{
			{Rank: 1, Requirement: 10, RewardExp: 50, RewardGold: 20},
			{Rank: 2, Requirement: 50, RewardExp: 150, RewardGold: 60},
			{Rank: 3, Requirement: 200, RewardExp: 400, RewardGold: 150},
			{Rank: 4, Requirement: 500, RewardExp: 1000, RewardGold: 400},
		},
	},
	{
		ID: "unbroken-chain", Name: "Unbroken Chain", Type: AchievementDailyStreak,
		Description: "Keep your daily streak alive",
		Ranks: []AchievementRank{
			{Rank: 1, Requirement: 3, RewardExp: 30, RewardGold: 15},
			{Rank: 2, Requirement: 7, RewardExp: 100, RewardGold: 50},
			{Rank: 3, Requirement: 30, RewardExp: 500, RewardGold: 200},
			{Rank: 4, Requirement: 100, RewardExp: 2000, RewardGold: 750},
		},
	},
	{
		ID: "hydration-habit", Name: "Hydration Habit", Type: AchievementWaterStreak,
		Description: "Hit your water goal day after day",
		Ranks: []AchievementRank{
			{Rank: 1, Requirement: 3, RewardExp: 25, RewardGold: 10},
			{Rank: 2, Requirement: 7, RewardExp: 75, RewardGold: 35},
			{Rank: 3, Requirement: 30, RewardExp: 400, RewardGold: 150},
		},
	},
	{
		ID: "gold-hoarder", Name: "Gold Hoarder", Type: AchievementTotalGold,
		Description: "Accumulate gold",
		Ranks: []AchievementRank{
			{Rank: 1, Requirement: 500, RewardExp: 50, RewardGold: 0},
			{Rank: 2, Requirement: 2500, RewardExp: 200, RewardGold: 0},
			{Rank: 3, Requirement: 10000, RewardExp: 750, RewardGold: 0},
		},
	},
	{
		ID: "rank-climber", Name: "Rank Climber", Type: AchievementRankType,
		Description: "Advance through the hunter ranks",
		Ranks: []AchievementRank{
			{Rank: 1, Requirement: 2, RewardExp: 100, RewardGold: 50},  // D
			{Rank: 2, Requirement: 3, RewardExp: 250, RewardGold: 100}, // C
			{Rank: 3, Requirement: 4, RewardExp: 500, RewardGold: 200}, // B
			{Rank: 4, Requirement: 5, RewardExp: 1000, RewardGold: 400}, // A
			{Rank: 5, Requirement: 6, RewardExp: 2500, RewardGold: 1000}, // S
		},
	},
}
