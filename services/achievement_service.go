package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"hunter-quest-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AchievementService scans the catalog against the ledger and grants tier
// rank-ups. It advances at most one tier per definition per invocation and
// re-checks thresholds on every call, so re-running it converges.
type AchievementService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewAchievementService(db *gorm.DB, ledger *LedgerService) *AchievementService {
	return &AchievementService{DB: db, Ledger: ledger}
}

// AchievementGrant is one tier granted by a scan.
type AchievementGrant struct {
	AchievementID string       `json:"achievement_id"`
	Name          string       `json:"name"`
	Rank          int          `json:"rank"`
	Unlocked      bool         `json:"unlocked"` // true only on the 0→1 transition
	Deltas        *DeltaResult `json:"deltas,omitempty"`
}

// CheckResult is the outcome of a full evaluator pass.
type CheckResult struct {
	Grants []AchievementGrant `json:"grants"`
	RankUp *models.Rank       `json:"rank_up,omitempty"`
}

// CheckAchievements runs the evaluator for one hunter, then re-evaluates the
// hunter rank against the requirement table.
func (s *AchievementService) CheckAchievements(externalUserID string) (*CheckResult, error) {
	prof, err := s.Ledger.GetProfile(externalUserID)
	if err != nil {
		return nil, err
	}

	var water models.WaterIntake
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&water).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var defs []models.AchievementDefinition
	if err := s.DB.Preload("Ranks", func(db *gorm.DB) *gorm.DB {
		return db.Order("rank ASC")
	}).Find(&defs).Error; err != nil {
		return nil, err
	}

	result := &CheckResult{}
	for _, def := range defs {
		grant, err := s.evaluateDefinition(prof, &water, def)
		if err != nil {
			return nil, err
		}
		if grant != nil {
			result.Grants = append(result.Grants, *grant)
		}
	}

	rankUp, err := s.tryRankUp(externalUserID)
	if err != nil {
		return nil, err
	}
	result.RankUp = rankUp
	return result, nil
}

// evaluateDefinition advances one definition by at most one tier.
func (s *AchievementService) evaluateDefinition(prof *models.HunterProfile, water *models.WaterIntake, def models.AchievementDefinition) (*AchievementGrant, error) {
	var pa models.PlayerAchievement
	err := s.DB.Where("external_user_id = ? AND achievement_id = ?", prof.ExternalUserID, def.ID).
		First(&pa).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	nextRank := pa.CurrentRank + 1
	if nextRank > len(def.Ranks) {
		return nil, nil // maxed
	}
	tier := def.Ranks[nextRank-1]

	if !s.satisfied(prof, water, def.Type, tier.Requirement) {
		return nil, nil
	}

	return s.grantTier(prof.ExternalUserID, def, nextRank)
}

// grantTier writes one tier rank-up and credits its reward. The progress row
// is re-fetched within the transaction with locking, and the grant is skipped
// when a concurrent evaluator already took the tier, so the reward credits
// exactly once.
func (s *AchievementService) grantTier(externalUserID string, def models.AchievementDefinition, nextRank int) (*AchievementGrant, error) {
	tier := def.Ranks[nextRank-1]

	var grant *AchievementGrant
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var pa models.PlayerAchievement
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("external_user_id = ? AND achievement_id = ?", externalUserID, def.ID).
			First(&pa).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			pa = models.PlayerAchievement{
				ID:             uuid.NewString(),
				ExternalUserID: externalUserID,
				AchievementID:  def.ID,
				CurrentRank:    0,
			}
		} else if err != nil {
			return err
		}
		if pa.CurrentRank != nextRank-1 {
			return nil // another session already took this tier
		}

		grant = &AchievementGrant{
			AchievementID: def.ID,
			Name:          def.Name,
			Rank:          nextRank,
			Unlocked:      pa.CurrentRank == 0,
		}
		pa.CurrentRank = nextRank
		if grant.Unlocked {
			now := time.Now()
			pa.UnlockedAt = &now
		}
		if err := tx.Save(&pa).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				grant = nil // lost the insert race for a fresh progress row
				return nil
			}
			return err
		}

		deltas, err := s.Ledger.applyRewardTx(tx, externalUserID, models.CompositeReward{
			models.ExpReward(tier.RewardExp),
			models.GoldReward(tier.RewardGold),
		})
		if err != nil {
			return err
		}
		grant.Deltas = deltas

		_, err = s.Ledger.notifyTx(tx, externalUserID, models.NotificationAchievement,
			fmt.Sprintf("Achievement: %s (rank %d)", def.Name, nextRank), map[string]interface{}{
				"achievement_id": def.ID,
				"rank":           nextRank,
				"unlocked":       grant.Unlocked,
				"exp":            tier.RewardExp,
				"gold":           tier.RewardGold,
			})
		return err
	})
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return nil, nil
	}

	log.Printf("🎖️ Achievement granted: %s rank %d → %s", def.ID, nextRank, externalUserID)
	return grant, nil
}

func (s *AchievementService) satisfied(prof *models.HunterProfile, water *models.WaterIntake, kind models.AchievementType, requirement int64) bool {
	switch kind {
	case models.AchievementLevel:
		return int64(prof.Level) >= requirement
	case models.AchievementQuestsCompleted:
		return prof.QuestsCompleted >= requirement
	case models.AchievementDailyStreak:
		return int64(prof.Streak) >= requirement
	case models.AchievementWaterStreak:
		return water != nil && int64(water.StreakDays) >= requirement
	case models.AchievementTotalGold:
		return prof.Gold >= requirement
	case models.AchievementRankType:
		return int64(models.RankOrdinal(prof.Rank)) >= requirement
	default:
		return false
	}
}

// tryRankUp advances the hunter rank when the level/quest/achievement
// thresholds for the next rank are all met. One step per invocation; the
// evaluator runs after every ledger-affecting event, so multi-step climbs
// settle over consecutive events.
func (s *AchievementService) tryRankUp(externalUserID string) (*models.Rank, error) {
	prof, err := s.Ledger.GetProfile(externalUserID)
	if err != nil {
		return nil, err
	}
	req, ok := RankRequirements(prof.Rank)
	if !ok {
		return nil, nil // already S
	}

	var unlocked int64
	if err := s.DB.Model(&models.PlayerAchievement{}).
		Where("external_user_id = ? AND current_rank > 0", externalUserID).
		Count(&unlocked).Error; err != nil {
		return nil, err
	}

	if prof.Level < req.Level || prof.QuestsCompleted < req.Quests || unlocked < req.Achievements {
		return nil, nil
	}

	next, _ := models.NextRank(prof.Rank)
	if _, err := s.Ledger.SetRank(externalUserID, next); err != nil {
		return nil, err
	}
	return &next, nil
}

// ListPlayerAchievements returns the hunter's per-definition progress.
func (s *AchievementService) ListPlayerAchievements(externalUserID string) ([]models.PlayerAchievement, error) {
	var rows []models.PlayerAchievement
	err := s.DB.Where("external_user_id = ?", externalUserID).Find(&rows).Error
	return rows, err
}

// SeedDefaultAchievements installs the built-in catalog when the table is empty.
func SeedDefaultAchievements(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.AchievementDefinition{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for i := range models.DefaultAchievements {
		def := models.DefaultAchievements[i]
		for j := range def.Ranks {
			def.Ranks[j].ID = uuid.NewString()
			def.Ranks[j].AchievementID = def.ID
		}
		if err := db.Create(&def).Error; err != nil {
			return err
		}
	}
	log.Printf("🌱 Seeded %d default achievements", len(models.DefaultAchievements))
	return nil
}
