package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"hunter-quest-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Flat per-quest completion payouts. Daily quests pay more than normal ones.
const (
	DailyQuestRewardExp   = 50
	DailyQuestRewardGold  = 25
	NormalQuestRewardExp  = 25
	NormalQuestRewardGold = 10
)

// QuestService manages normal and daily quests and the daily reset cycle.
type QuestService struct {
	DB           *gorm.DB
	Ledger       *LedgerService
	Achievements *AchievementService
}

func NewQuestService(db *gorm.DB, ledger *LedgerService, achievements *AchievementService) *QuestService {
	return &QuestService{DB: db, Ledger: ledger, Achievements: achievements}
}

// QuestInput is the caller-supplied part of a new quest.
type QuestInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Metric      string `json:"metric"`
	TargetCount int    `json:"target_count"`
	Daily       bool   `json:"daily"`
}

// QuestResult reports what a quest mutation did.
type QuestResult struct {
	Quest        *models.Quest        `json:"quest,omitempty"`
	Completed    bool                 `json:"completed"`
	Deleted      bool                 `json:"deleted"`
	StreakDelta  int                  `json:"streak_delta"`
	Deltas       *DeltaResult         `json:"deltas,omitempty"`
	Notification *models.Notification `json:"notification,omitempty"`
}

// CreateQuest validates and stores a new quest.
func (s *QuestService) CreateQuest(externalUserID string, in QuestInput) (*models.Quest, error) {
	return s.CreateQuestAt(externalUserID, in, time.Now())
}

func (s *QuestService) CreateQuestAt(externalUserID string, in QuestInput, now time.Time) (*models.Quest, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Metric) == "" {
		return nil, fmt.Errorf("%w: metric is required", ErrInvalidInput)
	}
	if in.TargetCount <= 0 {
		return nil, fmt.Errorf("%w: target_count must be positive", ErrInvalidInput)
	}

	quest := &models.Quest{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Metric:         strings.TrimSpace(in.Metric),
		TargetCount:    in.TargetCount,
		CurrentCount:   0,
		Daily:          in.Daily,
		Completed:      false,
	}
	if in.Daily {
		quest.LastReset = &now
	}
	if err := s.DB.Create(quest).Error; err != nil {
		return nil, err
	}
	log.Printf("📜 Quest created: %q (%s, target %d, daily=%t) for %s",
		quest.Title, quest.Metric, quest.TargetCount, quest.Daily, externalUserID)
	return quest, nil
}

// ListQuests returns the hunter's quests, daily first.
func (s *QuestService) ListQuests(externalUserID string) ([]models.Quest, error) {
	var quests []models.Quest
	err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("daily DESC, created_at ASC").
		Find(&quests).Error
	return quests, err
}

// UpdateQuestProgress adds to a quest's count (clamped to [0, target]) and
// completes the quest when the target is reached.
func (s *QuestService) UpdateQuestProgress(externalUserID, questID string, amount int) (*QuestResult, error) {
	return s.updateProgressAt(externalUserID, questID, amount, false, time.Now())
}

// CompleteQuest is the idempotent shortcut: jump straight to the target.
func (s *QuestService) CompleteQuest(externalUserID, questID string) (*QuestResult, error) {
	return s.updateProgressAt(externalUserID, questID, 0, true, time.Now())
}

// UpdateQuestProgressAt / CompleteQuestAt accept an explicit clock for tests.
func (s *QuestService) UpdateQuestProgressAt(externalUserID, questID string, amount int, now time.Time) (*QuestResult, error) {
	return s.updateProgressAt(externalUserID, questID, amount, false, now)
}

func (s *QuestService) CompleteQuestAt(externalUserID, questID string, now time.Time) (*QuestResult, error) {
	return s.updateProgressAt(externalUserID, questID, 0, true, now)
}

func (s *QuestService) updateProgressAt(externalUserID, questID string, amount int, complete bool, now time.Time) (*QuestResult, error) {
	result := &QuestResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var quest models.Quest
		if err := tx.Where("id = ? AND external_user_id = ?", questID, externalUserID).
			First(&quest).Error; err != nil {
			return translateDBError(err)
		}

		// Daily quests can only pay out once per calendar day. Comparing date
		// components (not elapsed ms) tolerates clock skew and multi-day gaps.
		if quest.Daily && quest.LastCompletion != nil && sameCalendarDay(*quest.LastCompletion, now) {
			return ErrAlreadyCompleted
		}

		next := quest.CurrentCount + amount
		if complete {
			next = quest.TargetCount
		}
		if next < 0 {
			next = 0
		}
		if next > quest.TargetCount {
			next = quest.TargetCount
		}
		quest.CurrentCount = next

		if next < quest.TargetCount {
			result.Quest = &quest
			return tx.Save(&quest).Error
		}

		// Target reached: pay out and either delete (normal) or mark (daily).
		return s.completeTx(tx, &quest, result, now)
	})
	if err != nil {
		return nil, err
	}

	if result.Completed {
		// Completion moved counters the evaluator watches.
		if _, err := s.Achievements.CheckAchievements(externalUserID); err != nil {
			log.Printf("⚠️ Achievement check failed after quest completion for %s: %v", externalUserID, err)
		}
	}
	return result, nil
}

// completeTx applies the completion side effects inside the caller's tx.
func (s *QuestService) completeTx(tx *gorm.DB, quest *models.Quest, result *QuestResult, now time.Time) error {
	reward := Delta{
		Exp:             NormalQuestRewardExp,
		Gold:            NormalQuestRewardGold,
		QuestsCompleted: 1,
	}
	if quest.Daily {
		reward.Exp = DailyQuestRewardExp
		reward.Gold = DailyQuestRewardGold
	}

	if quest.Daily {
		streakDelta, err := s.bumpStreakTx(tx, quest.ExternalUserID, now)
		if err != nil {
			return err
		}
		result.StreakDelta = streakDelta
	}

	deltas, err := s.Ledger.applyDeltaTx(tx, quest.ExternalUserID, reward)
	if err != nil {
		return err
	}
	result.Deltas = deltas

	notif, err := s.Ledger.notifyTx(tx, quest.ExternalUserID, models.NotificationQuestDone,
		fmt.Sprintf("Quest complete: %s (+%d EXP, +%d gold)", quest.Title, reward.Exp, reward.Gold),
		map[string]interface{}{
			"quest_id":  quest.ID,
			"daily":     quest.Daily,
			"exp":       reward.Exp,
			"gold":      reward.Gold,
			"new_level": deltas.NewLevel,
		})
	if err != nil {
		return err
	}
	result.Notification = notif
	result.Completed = true

	if quest.Daily {
		quest.Completed = true
		quest.LastCompletion = &now
		quest.CurrentCount = quest.TargetCount
		result.Quest = quest
		if err := tx.Save(quest).Error; err != nil {
			return err
		}
	} else {
		// Normal quests are one-shot; the row goes away with the payout.
		result.Deleted = true
		if err := tx.Delete(quest).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Quest completed: %q by %s (+%d EXP, +%d gold)",
		quest.Title, quest.ExternalUserID, reward.Exp, reward.Gold)
	return nil
}

// bumpStreakTx advances the daily streak at most once per calendar day: on
// the first daily completion of the day it increments when yesterday also had
// one and restarts at 1 after a longer gap.
func (s *QuestService) bumpStreakTx(tx *gorm.DB, externalUserID string, now time.Time) (int, error) {
	var last *time.Time
	var quests []models.Quest
	if err := tx.Where("external_user_id = ? AND daily = ?", externalUserID, true).
		Find(&quests).Error; err != nil {
		return 0, err
	}
	for i := range quests {
		lc := quests[i].LastCompletion
		if lc != nil && (last == nil || lc.After(*last)) {
			last = lc
		}
	}

	if last != nil && sameCalendarDay(*last, now) {
		return 0, nil // streak already counted today
	}

	var prof models.HunterProfile
	if err := tx.Where("external_user_id = ?", externalUserID).First(&prof).Error; err != nil {
		return 0, translateDBError(err)
	}

	before := prof.Streak
	if last != nil && sameCalendarDay(last.AddDate(0, 0, 1), now) {
		prof.Streak++
	} else {
		prof.Streak = 1
	}
	if err := tx.Save(&prof).Error; err != nil {
		return 0, err
	}
	return prof.Streak - before, nil
}

// DeleteQuest removes a quest unconditionally, with no reward side effects.
func (s *QuestService) DeleteQuest(externalUserID, questID string) error {
	res := s.DB.Where("id = ? AND external_user_id = ?", questID, externalUserID).
		Delete(&models.Quest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// sameCalendarDay compares the calendar-date components of two timestamps.
func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
