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

// WaterService tracks daily water intake. Day rollover (history, streak,
// counter reset) belongs to the daily reset cycle, not to this service.
type WaterService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewWaterService(db *gorm.DB, ledger *LedgerService) *WaterService {
	return &WaterService{DB: db, Ledger: ledger}
}

// WaterResult reports an intake update.
type WaterResult struct {
	Intake       *models.WaterIntake  `json:"intake"`
	GoalReached  bool                 `json:"goal_reached"` // true only when this update crossed the goal
	Notification *models.Notification `json:"notification,omitempty"`
}

// EnsureIntake ensures a WaterIntake row exists with sane defaults.
func (s *WaterService) EnsureIntake(externalUserID string) (*models.WaterIntake, error) {
	var water models.WaterIntake
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&water).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		water = models.WaterIntake{
			ID:               uuid.NewString(),
			ExternalUserID:   externalUserID,
			DailyGoalGlasses: 8,
			CupSizeMl:        250,
		}
		if err := s.DB.Create(&water).Error; err != nil {
			return nil, err
		}
		return &water, nil
	}
	if err != nil {
		return nil, err
	}
	return &water, nil
}

// RecordWaterIntake adds glasses (or milliliters, converted via the cup
// size) to today's count. Crossing the daily goal emits one notification.
func (s *WaterService) RecordWaterIntake(externalUserID string, glasses, ml int) (*WaterResult, error) {
	if glasses <= 0 && ml <= 0 {
		return nil, fmt.Errorf("%w: glasses or ml must be positive", ErrInvalidInput)
	}

	if _, err := s.EnsureIntake(externalUserID); err != nil {
		return nil, err
	}

	result := &WaterResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var water models.WaterIntake
		if err := tx.Where("external_user_id = ?", externalUserID).First(&water).Error; err != nil {
			return translateDBError(err)
		}

		add := glasses
		if ml > 0 {
			add += ml / water.CupSizeMl
		}
		if add <= 0 {
			return fmt.Errorf("%w: amount is below one cup (%d ml)", ErrInvalidInput, water.CupSizeMl)
		}

		before := water.CurrentGlasses
		water.CurrentGlasses += add
		if err := tx.Save(&water).Error; err != nil {
			return err
		}

		if before < water.DailyGoalGlasses && water.CurrentGlasses >= water.DailyGoalGlasses {
			result.GoalReached = true
			notif, err := s.Ledger.notifyTx(tx, externalUserID, models.NotificationWaterGoal,
				fmt.Sprintf("Water goal reached: %d glasses", water.DailyGoalGlasses),
				map[string]interface{}{
					"glasses": water.CurrentGlasses,
					"goal":    water.DailyGoalGlasses,
				})
			if err != nil {
				return err
			}
			result.Notification = notif
		}
		result.Intake = &water
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("💧 Water intake: %s → %d/%d glasses",
		externalUserID, result.Intake.CurrentGlasses, result.Intake.DailyGoalGlasses)
	return result, nil
}

// UpdateGoal changes the daily goal and/or cup size.
func (s *WaterService) UpdateGoal(externalUserID string, goalGlasses, cupSizeMl *int) (*models.WaterIntake, error) {
	water, err := s.EnsureIntake(externalUserID)
	if err != nil {
		return nil, err
	}
	if goalGlasses != nil {
		if *goalGlasses <= 0 {
			return nil, fmt.Errorf("%w: daily goal must be positive", ErrInvalidInput)
		}
		water.DailyGoalGlasses = *goalGlasses
	}
	if cupSizeMl != nil {
		if *cupSizeMl <= 0 {
			return nil, fmt.Errorf("%w: cup size must be positive", ErrInvalidInput)
		}
		water.CupSizeMl = *cupSizeMl
	}
	if err := s.DB.Save(water).Error; err != nil {
		return nil, err
	}
	return water, nil
}

// History returns archived days, newest first.
func (s *WaterService) History(externalUserID string, days int) ([]models.WaterIntakeDay, error) {
	if days < 1 || days > 365 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	var rows []models.WaterIntakeDay
	err := s.DB.Where("external_user_id = ? AND day >= ?", externalUserID, since).
		Order("day DESC").
		Find(&rows).Error
	return rows, err
}
