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

// Fixed timeout penalties. Gold is charged directly; exp goes through the
// accountant's penalty path so level-down cascades apply.
const (
	BattleTimeoutExpPenalty  = 100
	BattleTimeoutGoldPenalty = 50
)

// BattleService is the boss-battle state machine:
// Absent → Active → {Won, TimedOut}. Terminal transitions delete the battle
// row; there is no "lost" state short of timeout.
type BattleService struct {
	DB           *gorm.DB
	Ledger       *LedgerService
	Achievements *AchievementService
}

func NewBattleService(db *gorm.DB, ledger *LedgerService, achievements *AchievementService) *BattleService {
	return &BattleService{DB: db, Ledger: ledger, Achievements: achievements}
}

// BattleResult reports what a battle operation did.
type BattleResult struct {
	Battle       *models.ActiveBattle `json:"battle,omitempty"`
	Won          bool                 `json:"won"`
	TimedOut     bool                 `json:"timed_out"`
	DefeatCount  int64                `json:"defeat_count,omitempty"`
	Deltas       *DeltaResult         `json:"deltas,omitempty"`
	Notification *models.Notification `json:"notification,omitempty"`
}

// GetBossDefinition looks up a catalog entry.
func (s *BattleService) GetBossDefinition(bossID string) (*models.BossDefinition, error) {
	var def models.BossDefinition
	if err := s.DB.Where("id = ?", bossID).First(&def).Error; err != nil {
		return nil, translateDBError(err)
	}
	return &def, nil
}

// ListActiveBattles returns the hunter's running battles.
func (s *BattleService) ListActiveBattles(externalUserID string) ([]models.ActiveBattle, error) {
	var battles []models.ActiveBattle
	err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("end_time ASC").
		Find(&battles).Error
	return battles, err
}

// StartBattle opens a battle against a boss. The target scales linearly with
// the hunter's defeat count for that boss.
func (s *BattleService) StartBattle(externalUserID, bossID string) (*BattleResult, error) {
	return s.StartBattleAt(externalUserID, bossID, time.Now())
}

func (s *BattleService) StartBattleAt(externalUserID, bossID string, now time.Time) (*BattleResult, error) {
	def, err := s.GetBossDefinition(bossID)
	if err != nil {
		return nil, err
	}

	result := &BattleResult{}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.ActiveBattle
		err := tx.Where("external_user_id = ? AND boss_id = ?", externalUserID, bossID).
			First(&existing).Error
		if err == nil {
			return ErrAlreadyActive
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		defeats, err := s.defeatCountTx(tx, externalUserID, bossID)
		if err != nil {
			return err
		}

		battle := &models.ActiveBattle{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			BossID:         bossID,
			TargetCount:    int(BossScale(int64(def.BaseTargetCount), defeats, int64(def.ScalingTargetCount))),
			CurrentCount:   0,
			StartTime:      now,
			EndTime:        now.Add(def.TimeLimit()),
		}
		if err := tx.Create(battle).Error; err != nil {
			return err
		}
		result.Battle = battle
		result.DefeatCount = defeats
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("⚔️ Battle started: %s vs %s (target %d, ends %s)",
		externalUserID, bossID, result.Battle.TargetCount, result.Battle.EndTime.Format(time.RFC3339))
	return result, nil
}

// UpdateBattleProgress adds to the battle count, clamped at the target.
// Reaching the target transitions to Won; observing an expired deadline
// routes to the timeout path instead of crediting progress.
func (s *BattleService) UpdateBattleProgress(externalUserID, bossID string, delta int) (*BattleResult, error) {
	return s.UpdateBattleProgressAt(externalUserID, bossID, delta, time.Now())
}

func (s *BattleService) UpdateBattleProgressAt(externalUserID, bossID string, delta int, now time.Time) (*BattleResult, error) {
	var battle models.ActiveBattle
	if err := s.DB.Where("external_user_id = ? AND boss_id = ?", externalUserID, bossID).
		First(&battle).Error; err != nil {
		return nil, translateDBError(err)
	}

	if battle.Expired(now) {
		res, err := s.HandleBossBattleTimeoutAt(externalUserID, bossID, now)
		if err != nil {
			return nil, err
		}
		res.TimedOut = true
		return res, nil
	}

	result := &BattleResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("external_user_id = ? AND boss_id = ?", externalUserID, bossID).
			First(&battle).Error; err != nil {
			return translateDBError(err)
		}

		next := battle.CurrentCount + delta
		if next < 0 {
			next = 0
		}
		if next > battle.TargetCount {
			next = battle.TargetCount
		}
		battle.CurrentCount = next

		if next >= battle.TargetCount {
			return s.winTx(tx, &battle, result, now)
		}
		result.Battle = &battle
		return tx.Save(&battle).Error
	})
	if err != nil {
		return nil, err
	}

	if result.Won {
		if _, err := s.Achievements.CheckAchievements(externalUserID); err != nil {
			log.Printf("⚠️ Achievement check failed after boss win for %s: %v", externalUserID, err)
		}
	}
	return result, nil
}

// CompleteBossBattle is the explicit Won entry point. It refuses battles
// whose target has not been reached.
func (s *BattleService) CompleteBossBattle(externalUserID, bossID string) (*BattleResult, error) {
	return s.CompleteBossBattleAt(externalUserID, bossID, time.Now())
}

func (s *BattleService) CompleteBossBattleAt(externalUserID, bossID string, now time.Time) (*BattleResult, error) {
	result := &BattleResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var battle models.ActiveBattle
		if err := tx.Where("external_user_id = ? AND boss_id = ?", externalUserID, bossID).
			First(&battle).Error; err != nil {
			return translateDBError(err)
		}
		if battle.CurrentCount < battle.TargetCount {
			return fmt.Errorf("%w: battle target not reached (%d/%d)",
				ErrInvalidInput, battle.CurrentCount, battle.TargetCount)
		}
		return s.winTx(tx, &battle, result, now)
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.Achievements.CheckAchievements(externalUserID); err != nil {
		log.Printf("⚠️ Achievement check failed after boss win for %s: %v", externalUserID, err)
	}
	return result, nil
}

// winTx is the Won transition: defeat tally, scaled reward, optional title
// and battle deletion, all in the caller's transaction so defeat count and
// reward are never observed out of sync.
func (s *BattleService) winTx(tx *gorm.DB, battle *models.ActiveBattle, result *BattleResult, now time.Time) error {
	var def models.BossDefinition
	if err := tx.Where("id = ?", battle.BossID).First(&def).Error; err != nil {
		return translateDBError(err)
	}

	defeatsBefore, err := s.defeatCountTx(tx, battle.ExternalUserID, battle.BossID)
	if err != nil {
		return err
	}

	var record models.BossRecord
	err = tx.Where("external_user_id = ? AND boss_id = ?", battle.ExternalUserID, battle.BossID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = models.BossRecord{
			ID:             uuid.NewString(),
			ExternalUserID: battle.ExternalUserID,
			BossID:         battle.BossID,
		}
	} else if err != nil {
		return err
	}
	record.DefeatCount = defeatsBefore + 1
	if err := tx.Save(&record).Error; err != nil {
		return err
	}

	reward := models.CompositeReward{
		models.ExpReward(BossScale(def.RewardExp, defeatsBefore, def.ScalingRewardExp)),
		models.GoldReward(BossScale(def.RewardGold, defeatsBefore, def.ScalingRewardGold)),
	}
	if def.RewardTitle != "" {
		reward = append(reward, models.TitleReward(def.RewardTitle))
	}
	deltas, err := s.Ledger.applyRewardTx(tx, battle.ExternalUserID, reward)
	if err != nil {
		return err
	}

	if err := tx.Delete(battle).Error; err != nil {
		return err
	}

	notif, err := s.Ledger.notifyTx(tx, battle.ExternalUserID, models.NotificationBossWon,
		fmt.Sprintf("Boss defeated: %s!", def.Name), map[string]interface{}{
			"boss_id":      def.ID,
			"defeat_count": record.DefeatCount,
			"exp":          int64(reward[0].(models.ExpReward)),
			"gold":         int64(reward[1].(models.GoldReward)),
			"title":        def.RewardTitle,
		})
	if err != nil {
		return err
	}

	result.Won = true
	result.DefeatCount = record.DefeatCount
	result.Deltas = deltas
	result.Notification = notif

	log.Printf("🏆 Boss defeated: %s by %s (defeat #%d)", def.Name, battle.ExternalUserID, record.DefeatCount)
	return nil
}

// HandleBossBattleTimeout applies the timeout penalty exactly once.
//
// Two-phase: first win the claim by flipping ProcessingPenalty with a
// conditional update (an observer that loses the race sees zero rows and
// no-ops), then penalize and delete in one transaction. A battle row that
// vanished between read and write means a concurrent caller already resolved
// it, which counts as success.
func (s *BattleService) HandleBossBattleTimeout(externalUserID, bossID string) (*BattleResult, error) {
	return s.HandleBossBattleTimeoutAt(externalUserID, bossID, time.Now())
}

func (s *BattleService) HandleBossBattleTimeoutAt(externalUserID, bossID string, now time.Time) (*BattleResult, error) {
	var battle models.ActiveBattle
	err := s.DB.Where("external_user_id = ? AND boss_id = ?", externalUserID, bossID).
		First(&battle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &BattleResult{TimedOut: true}, nil // already resolved elsewhere
	}
	if err != nil {
		return nil, err
	}
	if !battle.Expired(now) {
		return nil, fmt.Errorf("%w: battle has not expired yet", ErrInvalidInput)
	}

	// Phase 1: claim.
	claim := s.DB.Model(&models.ActiveBattle{}).
		Where("id = ? AND penalty_applied = ? AND processing_penalty = ?", battle.ID, false, false).
		Update("processing_penalty", true)
	if claim.Error != nil {
		return nil, claim.Error
	}
	if claim.RowsAffected == 0 {
		return &BattleResult{TimedOut: true}, nil // another observer holds the claim
	}

	// Phase 2: penalize and delete.
	result := &BattleResult{TimedOut: true}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		deltas, err := s.Ledger.applyPenaltyTx(tx, externalUserID,
			BattleTimeoutExpPenalty, BattleTimeoutGoldPenalty,
			models.NotificationBossTimeout,
			fmt.Sprintf("boss battle timed out: %s", bossID))
		if err != nil {
			return err
		}
		result.Deltas = deltas
		result.Notification = deltas.Notification

		if err := tx.Model(&models.ActiveBattle{}).
			Where("id = ?", battle.ID).
			Update("penalty_applied", true).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", battle.ID).Delete(&models.ActiveBattle{}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("⌛ Boss battle timed out: %s vs %s (-%d EXP, -%d gold)",
		externalUserID, bossID, BattleTimeoutExpPenalty, BattleTimeoutGoldPenalty)
	return result, nil
}

// SweepExpiredBattles resolves every battle past its deadline. Invoked by
// the scheduler; safe to run late, twice, or after a long gap.
func (s *BattleService) SweepExpiredBattles(now time.Time) int {
	var battles []models.ActiveBattle
	if err := s.DB.Where("end_time <= ?", now).Find(&battles).Error; err != nil {
		log.Printf("❌ Battle sweep query failed: %v", err)
		return 0
	}
	resolved := 0
	for _, b := range battles {
		if _, err := s.HandleBossBattleTimeoutAt(b.ExternalUserID, b.BossID, now); err != nil {
			log.Printf("❌ Failed to time out battle %s (%s vs %s): %v", b.ID, b.ExternalUserID, b.BossID, err)
			continue
		}
		resolved++
	}
	return resolved
}

func (s *BattleService) defeatCountTx(tx *gorm.DB, externalUserID, bossID string) (int64, error) {
	var record models.BossRecord
	err := tx.Where("external_user_id = ? AND boss_id = ?", externalUserID, bossID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return record.DefeatCount, nil
}
