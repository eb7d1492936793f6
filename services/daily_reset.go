package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"hunter-quest-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Day-boundary accounting constants.
const (
	DailyMissPenaltyExp = 30 // per incomplete daily quest
	WaterMissPenaltyExp = 5  // per glass under the daily goal
	WaterBonusGold      = 2  // per glass over the daily goal
)

// ResetResult reports what a day-boundary check did.
type ResetResult struct {
	Applied         bool                 `json:"applied"`
	QuestsPenalized int                  `json:"quests_penalized"`
	QuestsReset     int                  `json:"quests_reset"`
	WaterDeficit    int                  `json:"water_deficit"`
	WaterSurplus    int                  `json:"water_surplus"`
	Deltas          *DeltaResult         `json:"deltas,omitempty"`
	Notification    *models.Notification `json:"notification,omitempty"`
}

// NeedsDailyReset is the pure boundary predicate: true when the persisted
// checkpoint and now fall on different calendar days. A check that fires
// late, twice, or after a multi-day gap converges to the same answer.
func NeedsDailyReset(lastReset *time.Time, now time.Time) bool {
	if lastReset == nil {
		return true
	}
	return !sameCalendarDay(*lastReset, now)
}

// CheckDailyQuestReset runs the day-boundary cycle for one hunter if a
// boundary has been crossed since the profile's last reset. Ordering inside
// the transaction is load-bearing: penalties are computed against the
// outgoing day's state *before* any quest is reset.
func (s *QuestService) CheckDailyQuestReset(externalUserID string) (*ResetResult, error) {
	return s.CheckDailyQuestResetAt(externalUserID, time.Now())
}

func (s *QuestService) CheckDailyQuestResetAt(externalUserID string, now time.Time) (*ResetResult, error) {
	result := &ResetResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var prof models.HunterProfile
		if err := tx.Where("external_user_id = ?", externalUserID).First(&prof).Error; err != nil {
			return translateDBError(err)
		}
		if !NeedsDailyReset(prof.LastDailyReset, now) {
			return nil // already handled today
		}

		if err := s.applyDailyPenaltiesTx(tx, &prof, result, now); err != nil {
			return err
		}
		if err := s.resetDailyQuestsTx(tx, externalUserID, result, now); err != nil {
			return err
		}
		if err := s.rolloverWaterTx(tx, externalUserID, now); err != nil {
			return err
		}

		result.Applied = true
		return tx.Model(&models.HunterProfile{}).
			Where("external_user_id = ?", externalUserID).
			Update("last_daily_reset", now).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyDailyPenaltiesTx charges the outgoing day: a fixed amount per
// incomplete daily quest plus the water-goal differential, folded into one
// ledger delta and one consolidated notification. Quests completed during
// the outgoing day keep their reward and are not charged.
func (s *QuestService) applyDailyPenaltiesTx(tx *gorm.DB, prof *models.HunterProfile, result *ResetResult, now time.Time) error {
	var incomplete int64
	if err := tx.Model(&models.Quest{}).
		Where("external_user_id = ? AND daily = ? AND completed = ?", prof.ExternalUserID, true, false).
		Count(&incomplete).Error; err != nil {
		return err
	}
	result.QuestsPenalized = int(incomplete)

	expPenalty := incomplete * DailyMissPenaltyExp
	var goldBonus int64

	var water models.WaterIntake
	err := tx.Where("external_user_id = ?", prof.ExternalUserID).First(&water).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil {
		if water.CurrentGlasses < water.DailyGoalGlasses {
			result.WaterDeficit = water.DailyGoalGlasses - water.CurrentGlasses
			expPenalty += int64(result.WaterDeficit) * WaterMissPenaltyExp
		} else if water.CurrentGlasses > water.DailyGoalGlasses {
			result.WaterSurplus = water.CurrentGlasses - water.DailyGoalGlasses
			goldBonus = int64(result.WaterSurplus) * WaterBonusGold
		}
	}

	if expPenalty == 0 && goldBonus == 0 {
		return nil // clean day, nothing to account
	}

	deltas, err := s.Ledger.applyDeltaTx(tx, prof.ExternalUserID, Delta{Exp: -expPenalty, Gold: goldBonus})
	if err != nil {
		return err
	}
	result.Deltas = deltas

	if expPenalty > 0 {
		if err := tx.Model(&models.HunterProfile{}).
			Where("external_user_id = ?", prof.ExternalUserID).
			Update("last_penalty", now).Error; err != nil {
			return err
		}
	}

	msg := fmt.Sprintf("Daily summary: %d quest(s) missed (-%d EXP)", incomplete, expPenalty)
	if goldBonus > 0 {
		msg = fmt.Sprintf("Daily summary: %d quest(s) missed, water goal exceeded (+%d gold, -%d EXP)",
			incomplete, goldBonus, expPenalty)
	}
	notif, err := s.Ledger.notifyTx(tx, prof.ExternalUserID, models.NotificationDailySummary, msg,
		map[string]interface{}{
			"quests_missed": incomplete,
			"exp_penalty":   expPenalty,
			"gold_bonus":    goldBonus,
			"water_deficit": result.WaterDeficit,
			"water_surplus": result.WaterSurplus,
			"levels_lost":   deltas.LevelsLost,
			"new_level":     deltas.NewLevel,
		})
	if err != nil {
		return err
	}
	result.Notification = notif

	log.Printf("🌙 Daily penalties for %s: %d missed quests, -%d EXP, +%d gold",
		prof.ExternalUserID, incomplete, expPenalty, goldBonus)
	return nil
}

// resetDailyQuestsTx reverts every daily quest to an incomplete fresh state.
func (s *QuestService) resetDailyQuestsTx(tx *gorm.DB, externalUserID string, result *ResetResult, now time.Time) error {
	res := tx.Model(&models.Quest{}).
		Where("external_user_id = ? AND daily = ?", externalUserID, true).
		Updates(map[string]interface{}{
			"current_count": 0,
			"completed":     false,
			"last_reset":    now,
		})
	if res.Error != nil {
		return res.Error
	}
	result.QuestsReset = int(res.RowsAffected)
	return nil
}

// ResetDailyQuests is the explicit entry point. It still runs the penalty
// pass first — resetting without accounting would let unfinished quests
// appear fresh and innocent.
func (s *QuestService) ResetDailyQuests(externalUserID string) (*ResetResult, error) {
	return s.ResetDailyQuestsAt(externalUserID, time.Now())
}

func (s *QuestService) ResetDailyQuestsAt(externalUserID string, now time.Time) (*ResetResult, error) {
	result := &ResetResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var prof models.HunterProfile
		if err := tx.Where("external_user_id = ?", externalUserID).First(&prof).Error; err != nil {
			return translateDBError(err)
		}
		if err := s.applyDailyPenaltiesTx(tx, &prof, result, now); err != nil {
			return err
		}
		if err := s.resetDailyQuestsTx(tx, externalUserID, result, now); err != nil {
			return err
		}
		if err := s.rolloverWaterTx(tx, externalUserID, now); err != nil {
			return err
		}
		result.Applied = true
		return tx.Model(&models.HunterProfile{}).
			Where("external_user_id = ?", externalUserID).
			Update("last_daily_reset", now).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// rolloverWaterTx archives the outgoing day's intake, updates the water
// streak against the goal and zeroes the counter for the new day.
func (s *QuestService) rolloverWaterTx(tx *gorm.DB, externalUserID string, now time.Time) error {
	var water models.WaterIntake
	err := tx.Where("external_user_id = ?", externalUserID).First(&water).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil // hunter never tracked water
	}
	if err != nil {
		return err
	}

	day := now.AddDate(0, 0, -1)
	if water.LastReset != nil {
		day = *water.LastReset
	}
	history := models.WaterIntakeDay{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Day:            day.Format("2006-01-02"),
		Glasses:        water.CurrentGlasses,
		Goal:           water.DailyGoalGlasses,
	}
	// A repeated boundary check for the same day must not duplicate history.
	if err := tx.Where("external_user_id = ? AND day = ?", externalUserID, history.Day).
		FirstOrCreate(&history).Error; err != nil {
		return err
	}

	if water.CurrentGlasses >= water.DailyGoalGlasses {
		water.StreakDays++
	} else {
		water.StreakDays = 0
	}
	water.CurrentGlasses = 0
	water.LastReset = &now
	return tx.Save(&water).Error
}
