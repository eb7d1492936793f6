package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"hunter-quest-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerService is the Player Ledger plus the penalty/reward accountant: the
// single place exp and gold are mutated. Every public operation is one
// atomic read-modify-write transaction so concurrent sessions never observe
// a half-applied ledger.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// Delta is a signed adjustment to the ledger.
type Delta struct {
	Exp             int64
	Gold            int64
	QuestsCompleted int64
}

// DeltaResult reports what a ledger mutation actually did, for UI display.
type DeltaResult struct {
	ExpDelta      int64       `json:"exp_delta"`
	GoldDelta     int64       `json:"gold_delta"`
	LevelsGained  int         `json:"levels_gained"`
	LevelsLost    int         `json:"levels_lost"`
	PreviousLevel int         `json:"previous_level"`
	NewLevel      int         `json:"new_level"`
	NewExp        int64       `json:"new_exp"`
	NewGold       int64       `json:"new_gold"`
	NewRank       models.Rank `json:"new_rank"`

	Notification *models.Notification `json:"notification,omitempty"`
}

// EnsureProfile ensures a HunterProfile row exists (idempotent).
func (s *LedgerService) EnsureProfile(externalUserID string) (*models.HunterProfile, error) {
	if externalUserID == "" {
		return nil, ErrUnauthenticated
	}
	var prof models.HunterProfile
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&prof).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prof = models.HunterProfile{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Level:          1,
			Exp:            0,
			ExpNeeded:      ExpForLevel(1),
			Gold:           0,
			Rank:           models.RankE,
		}
		if err := s.DB.Create(&prof).Error; err != nil {
			return nil, err
		}
		return &prof, nil
	}
	if err != nil {
		return nil, err
	}
	return &prof, nil
}

// GetProfile fetches the ledger without creating it.
func (s *LedgerService) GetProfile(externalUserID string) (*models.HunterProfile, error) {
	var prof models.HunterProfile
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&prof).Error; err != nil {
		return nil, translateDBError(err)
	}
	return &prof, nil
}

// ApplyDelta atomically applies a signed delta, cascading level changes in
// either direction, and recomputes the cached ExpNeeded.
func (s *LedgerService) ApplyDelta(externalUserID string, d Delta) (*DeltaResult, error) {
	var result *DeltaResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.applyDeltaTx(tx, externalUserID, d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyDeltaTx is the transactional core of the accountant. Callers composing
// larger operations (quest completion, boss resolution, daily reset) pass
// their own tx so the whole operation commits or rolls back as one.
func (s *LedgerService) applyDeltaTx(tx *gorm.DB, externalUserID string, d Delta) (*DeltaResult, error) {
	// Row lock so concurrent deltas against the same hunter serialize instead
	// of overwriting each other.
	var prof models.HunterProfile
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_user_id = ?", externalUserID).
		First(&prof).Error; err != nil {
		return nil, translateDBError(err)
	}

	res := &DeltaResult{
		ExpDelta:      d.Exp,
		GoldDelta:     d.Gold,
		PreviousLevel: prof.Level,
	}

	prof.Exp += d.Exp
	prof.Gold += d.Gold
	if prof.Gold < 0 {
		res.GoldDelta = d.Gold - prof.Gold // report the clamped part too
		prof.Gold = 0
	}
	if d.QuestsCompleted > 0 {
		prof.QuestsCompleted += d.QuestsCompleted
	}

	// Level-down cascade: pay the debt out of lower levels, never below 1.
	for prof.Exp < 0 && prof.Level > 1 {
		prof.Level--
		prof.Exp += ExpForLevel(prof.Level)
		res.LevelsLost++
	}
	if prof.Exp < 0 {
		prof.Exp = 0
	}

	// Level-up cascade.
	for prof.Exp >= ExpForLevel(prof.Level) {
		prof.Exp -= ExpForLevel(prof.Level)
		prof.Level++
		res.LevelsGained++
	}
	if res.LevelsGained > 0 {
		now := time.Now()
		prof.LastLevelUpAt = &now
	}

	// Invariant: ExpNeeded mirrors the curve for the (possibly new) level.
	prof.ExpNeeded = ExpForLevel(prof.Level)

	if err := tx.Save(&prof).Error; err != nil {
		return nil, err
	}

	res.NewLevel = prof.Level
	res.NewExp = prof.Exp
	res.NewGold = prof.Gold
	res.NewRank = prof.Rank
	return res, nil
}

// ApplyPenalty subtracts exp (cascading level-down), stamps LastPenalty and
// records a penalty notification — all in one transaction.
func (s *LedgerService) ApplyPenalty(externalUserID string, amount int64) (*DeltaResult, error) {
	var result *DeltaResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.applyPenaltyTx(tx, externalUserID, amount, 0, models.NotificationPenalty, "exp penalty")
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyPenaltyTx applies an exp (and optionally gold) penalty inside tx and
// records a notification of the given kind.
func (s *LedgerService) applyPenaltyTx(tx *gorm.DB, externalUserID string, expAmount, goldAmount int64, kind, reason string) (*DeltaResult, error) {
	if expAmount <= 0 {
		return nil, fmt.Errorf("%w: penalty amount must be positive", ErrInvalidInput)
	}

	res, err := s.applyDeltaTx(tx, externalUserID, Delta{Exp: -expAmount, Gold: -goldAmount})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := tx.Model(&models.HunterProfile{}).
		Where("external_user_id = ?", externalUserID).
		Update("last_penalty", now).Error; err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("You lost %d EXP (%s)", expAmount, reason)
	if res.LevelsLost > 0 {
		msg = fmt.Sprintf("You lost %d EXP and fell to level %d (%s)", expAmount, res.NewLevel, reason)
	}
	notif, err := s.notifyTx(tx, externalUserID, kind, msg, map[string]interface{}{
		"levels_lost":    res.LevelsLost,
		"previous_level": res.PreviousLevel,
		"new_level":      res.NewLevel,
		"exp_penalty":    expAmount,
		"gold_penalty":   goldAmount,
	})
	if err != nil {
		return nil, err
	}
	res.Notification = notif

	log.Printf("⚠️ Penalty applied: %s → -%d EXP, -%d gold (lvl %d→%d, reason: %s)",
		externalUserID, expAmount, goldAmount, res.PreviousLevel, res.NewLevel, reason)
	return res, nil
}

// SetRank is a one-way upgrade: a no-op unless rank is strictly higher than
// the hunter's current rank.
func (s *LedgerService) SetRank(externalUserID string, rank models.Rank) (*models.Notification, error) {
	var notif *models.Notification
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var prof models.HunterProfile
		if err := tx.Where("external_user_id = ?", externalUserID).First(&prof).Error; err != nil {
			return translateDBError(err)
		}
		if models.RankOrdinal(rank) <= models.RankOrdinal(prof.Rank) {
			return nil
		}
		now := time.Now()
		prof.Rank = rank
		prof.LastRankUpAt = &now
		if err := tx.Save(&prof).Error; err != nil {
			return err
		}
		var err error
		notif, err = s.notifyTx(tx, externalUserID, models.NotificationRankUp,
			fmt.Sprintf("You advanced to %s-Rank!", rank), map[string]interface{}{
				"rank": rank,
			})
		if err != nil {
			return err
		}
		log.Printf("🏅 Rank up: %s → %s-Rank", externalUserID, rank)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notif, nil
}

// AddExperiencePoints is the external grant entry point (manual/assistant
// "add exp" command). Positive amounts only.
func (s *LedgerService) AddExperiencePoints(externalUserID string, amount int64) (*DeltaResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: exp amount must be positive", ErrInvalidInput)
	}
	var result *DeltaResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res, err := s.applyDeltaTx(tx, externalUserID, Delta{Exp: amount})
		if err != nil {
			return err
		}
		if res.LevelsGained > 0 {
			notif, err := s.notifyTx(tx, externalUserID, models.NotificationLevelUp,
				fmt.Sprintf("Level up! You reached level %d", res.NewLevel), map[string]interface{}{
					"levels_gained":  res.LevelsGained,
					"previous_level": res.PreviousLevel,
					"new_level":      res.NewLevel,
				})
			if err != nil {
				return err
			}
			res.Notification = notif
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyRewardTx applies any RewardEffect variant uniformly inside tx.
func (s *LedgerService) applyRewardTx(tx *gorm.DB, externalUserID string, effect models.RewardEffect) (*DeltaResult, error) {
	switch e := effect.(type) {
	case models.ExpReward:
		return s.applyDeltaTx(tx, externalUserID, Delta{Exp: int64(e)})
	case models.GoldReward:
		return s.applyDeltaTx(tx, externalUserID, Delta{Gold: int64(e)})
	case models.TitleReward:
		if err := tx.Model(&models.HunterProfile{}).
			Where("external_user_id = ?", externalUserID).
			Update("title", string(e)).Error; err != nil {
			return nil, err
		}
		return &DeltaResult{}, nil
	case models.CompositeReward:
		// Fold the parts into one delta where possible so level cascades run
		// once over the combined exp.
		var d Delta
		var title *models.TitleReward
		for _, part := range e {
			switch p := part.(type) {
			case models.ExpReward:
				d.Exp += int64(p)
			case models.GoldReward:
				d.Gold += int64(p)
			case models.TitleReward:
				t := p
				title = &t
			case models.CompositeReward:
				if _, err := s.applyRewardTx(tx, externalUserID, p); err != nil {
					return nil, err
				}
			}
		}
		res, err := s.applyDeltaTx(tx, externalUserID, d)
		if err != nil {
			return nil, err
		}
		if title != nil {
			if _, err := s.applyRewardTx(tx, externalUserID, *title); err != nil {
				return nil, err
			}
		}
		return res, nil
	default:
		return nil, fmt.Errorf("%w: unknown reward effect %T", ErrInvalidInput, effect)
	}
}

// notifyTx appends a notification row inside tx and returns it.
func (s *LedgerService) notifyTx(tx *gorm.DB, externalUserID, kind, message string, details map[string]interface{}) (*models.Notification, error) {
	payload := ""
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return nil, err
		}
		payload = string(raw)
	}
	notif := &models.Notification{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Type:           kind,
		Message:        message,
		Details:        payload,
	}
	if err := tx.Create(notif).Error; err != nil {
		return nil, err
	}
	return notif, nil
}
