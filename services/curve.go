package services

import (
	"math"

	"hunter-quest-system/models"
)

// Experience curve constants. These are load-bearing: every HunterProfile
// caches ExpNeeded = ExpForLevel(Level), so changing them invalidates every
// stored profile. Do not retune without a migration.
const (
	BaseExpPerLevel   = 100
	ExpStepPerLevel   = 50
	LateCurveStart    = 20
	LateScalingFactor = 1.15
)

// ExpForLevel returns the experience needed to clear the given level.
// Linear up to level 20, exponential with a linear kicker past it.
// Positive and non-decreasing for all level >= 1.
func ExpForLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	if level <= LateCurveStart {
		return int64(BaseExpPerLevel + (level-1)*ExpStepPerLevel)
	}
	scaled := float64(BaseExpPerLevel) * math.Pow(LateScalingFactor, float64(level-LateCurveStart))
	return int64(math.Floor(scaled)) + int64(level)*100
}

// RankRequirement holds the thresholds a hunter must meet to advance past a rank.
type RankRequirement struct {
	Level        int   `json:"level"`
	Quests       int64 `json:"quests"`
	Achievements int64 `json:"achievements"` // distinct unlocked achievements
}

// rankRequirements: rank → thresholds for the *next* rank
var rankRequirements = map[models.Rank]RankRequirement{
	models.RankE: {Level: 5, Quests: 10, Achievements: 1},
	models.RankD: {Level: 10, Quests: 25, Achievements: 2},
	models.RankC: {Level: 20, Quests: 50, Achievements: 4},
	models.RankB: {Level: 35, Quests: 100, Achievements: 6},
	models.RankA: {Level: 50, Quests: 200, Achievements: 8},
}

// RankRequirements returns the thresholds for advancing past the given rank.
// The second return is false for S (nothing above it).
func RankRequirements(r models.Rank) (RankRequirement, bool) {
	req, ok := rankRequirements[r]
	return req, ok
}

// BossScale is the shared linear scaling used for boss targets and rewards:
// base + defeatCount*delta.
func BossScale(base, defeatCount, delta int64) int64 {
	return base + defeatCount*delta
}
