package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"hunter-quest-system/models"
	"hunter-quest-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogService manages the static boss and achievement catalogs (admin
// surface). Catalog IDs are slugs derived from names so clients reference
// entries by stable human-readable keys.
type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

// ListBosses returns the full boss catalog (user-facing).
func (s *CatalogService) ListBosses(c *fiber.Ctx) error {
	var bosses []models.BossDefinition
	if err := s.DB.Order("name ASC").Find(&bosses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list bosses"})
	}
	return c.JSON(bosses)
}

// CreateBoss creates a catalog entry from multipart form fields, with an
// optional icon uploaded to R2 (Admin only).
func (s *CatalogService) CreateBoss(c *fiber.Ctx) error {
	def := models.BossDefinition{
		Name:   c.FormValue("name"),
		Metric: c.FormValue("metric"),
	}
	if def.Name == "" || def.Metric == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and metric are required"})
	}
	def.ID = slug.Make(def.Name)

	var err error
	if def.BaseTargetCount, err = formInt(c, "base_target_count"); err != nil || def.BaseTargetCount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "base_target_count must be a positive integer"})
	}
	if def.TimeLimitMs, err = formInt64(c, "time_limit_ms"); err != nil || def.TimeLimitMs <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "time_limit_ms must be a positive integer"})
	}
	def.RewardExp, _ = formInt64(c, "reward_exp")
	def.RewardGold, _ = formInt64(c, "reward_gold")
	def.RewardTitle = c.FormValue("reward_title")
	def.ScalingTargetCount, _ = formInt(c, "scaling_target_count")
	def.ScalingRewardExp, _ = formInt64(c, "scaling_reward_exp")
	def.ScalingRewardGold, _ = formInt64(c, "scaling_reward_gold")

	if icon, err := c.FormFile("icon"); err == nil {
		url, err := utils.UploadFileToR2(icon, "bosses/"+def.ID+filepath.Ext(icon.Filename))
		if err != nil {
			log.Printf("❌ Icon upload failed for boss %s: %v", def.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "icon upload failed"})
		}
		def.IconURL = url
	}

	if err := s.DB.Create(&def).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "boss already exists", "id": def.ID})
		}
		log.Printf("DB Error creating boss: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create boss"})
	}
	return c.Status(fiber.StatusCreated).JSON(def)
}

// UpdateBoss patches a catalog entry (Admin only).
func (s *CatalogService) UpdateBoss(c *fiber.Ctx) error {
	id := c.Params("id")
	var def models.BossDefinition
	if err := s.DB.First(&def, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "boss not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Name               *string `json:"name"`
		Metric             *string `json:"metric"`
		BaseTargetCount    *int    `json:"base_target_count"`
		TimeLimitMs        *int64  `json:"time_limit_ms"`
		RewardExp          *int64  `json:"reward_exp"`
		RewardGold         *int64  `json:"reward_gold"`
		RewardTitle        *string `json:"reward_title"`
		ScalingTargetCount *int    `json:"scaling_target_count"`
		ScalingRewardExp   *int64  `json:"scaling_reward_exp"`
		ScalingRewardGold  *int64  `json:"scaling_reward_gold"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Name != nil {
		def.Name = *req.Name
	}
	if req.Metric != nil {
		def.Metric = *req.Metric
	}
	if req.BaseTargetCount != nil {
		def.BaseTargetCount = *req.BaseTargetCount
	}
	if req.TimeLimitMs != nil {
		def.TimeLimitMs = *req.TimeLimitMs
	}
	if req.RewardExp != nil {
		def.RewardExp = *req.RewardExp
	}
	if req.RewardGold != nil {
		def.RewardGold = *req.RewardGold
	}
	if req.RewardTitle != nil {
		def.RewardTitle = *req.RewardTitle
	}
	if req.ScalingTargetCount != nil {
		def.ScalingTargetCount = *req.ScalingTargetCount
	}
	if req.ScalingRewardExp != nil {
		def.ScalingRewardExp = *req.ScalingRewardExp
	}
	if req.ScalingRewardGold != nil {
		def.ScalingRewardGold = *req.ScalingRewardGold
	}

	if err := s.DB.Save(&def).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update boss"})
	}
	return c.JSON(def)
}

// DeleteBoss removes a catalog entry (Admin only). Active battles against it
// are left to time out.
func (s *CatalogService) DeleteBoss(c *fiber.Ctx) error {
	id := c.Params("id")
	res := s.DB.Where("id = ?", id).Delete(&models.BossDefinition{})
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete boss"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "boss not found"})
	}
	return c.JSON(fiber.Map{"message": "boss deleted"})
}

// CreateAchievement creates a definition with its tiers (Admin only).
func (s *CatalogService) CreateAchievement(c *fiber.Ctx) error {
	var req struct {
		Name        string                 `json:"name"`
		Description string                 `json:"description"`
		Type        models.AchievementType `json:"type"`
		Ranks       []struct {
			Requirement int64 `json:"requirement"`
			RewardExp   int64 `json:"reward_exp"`
			RewardGold  int64 `json:"reward_gold"`
		} `json:"ranks"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Name == "" || len(req.Ranks) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and at least one rank are required"})
	}
	switch req.Type {
	case models.AchievementLevel, models.AchievementQuestsCompleted, models.AchievementDailyStreak,
		models.AchievementWaterStreak, models.AchievementTotalGold, models.AchievementRankType:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown achievement type"})
	}

	def := models.AchievementDefinition{
		ID:          slug.Make(req.Name),
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
	}
	for i, r := range req.Ranks {
		def.Ranks = append(def.Ranks, models.AchievementRank{
			ID:            uuid.NewString(),
			AchievementID: def.ID,
			Rank:          i + 1,
			Requirement:   r.Requirement,
			RewardExp:     r.RewardExp,
			RewardGold:    r.RewardGold,
		})
	}

	if err := s.DB.Create(&def).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "achievement already exists", "id": def.ID})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create achievement"})
	}
	return c.Status(fiber.StatusCreated).JSON(def)
}

// DeleteAchievement removes a definition, its tiers and all player progress
// against it (Admin only).
func (s *CatalogService) DeleteAchievement(c *fiber.Ctx) error {
	id := c.Params("id")
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.AchievementDefinition{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("achievement_id = ?", id).Delete(&models.AchievementRank{}).Error; err != nil {
			return err
		}
		return tx.Where("achievement_id = ?", id).Delete(&models.PlayerAchievement{}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "achievement not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete achievement"})
	}
	return c.JSON(fiber.Map{"message": "achievement deleted"})
}

// ListAchievements returns the full achievement catalog with tiers.
func (s *CatalogService) ListAchievements(c *fiber.Ctx) error {
	var defs []models.AchievementDefinition
	if err := s.DB.Preload("Ranks", func(db *gorm.DB) *gorm.DB {
		return db.Order("rank ASC")
	}).Order("name ASC").Find(&defs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list achievements"})
	}
	return c.JSON(defs)
}

// catalogPack is the wire shape of an importable catalog archive:
// a zip containing bosses.json and/or achievements.json.
type catalogPack struct {
	Bosses       []models.BossDefinition        `json:"bosses"`
	Achievements []models.AchievementDefinition `json:"achievements"`
}

// ImportCatalog upserts catalog entries from an uploaded zip (Admin only).
func (s *CatalogService) ImportCatalog(c *fiber.Ctx) error {
	packFile, err := c.FormFile("pack")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "pack file is required"})
	}
	if packFile.Size > 10*1024*1024 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "pack too large (max 10MB)"})
	}

	zipPath := utils.GetUploadPath("packs/" + uuid.NewString() + ".zip")
	if err := utils.SaveFile(packFile, zipPath); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save pack"})
	}
	defer os.Remove(zipPath)

	dest, err := os.MkdirTemp("", "catalog-pack-*")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to prepare extraction"})
	}
	defer os.RemoveAll(dest)

	if err := utils.Unzip(zipPath, dest); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid zip archive", "cause": err.Error()})
	}

	pack, err := readCatalogPack(dest)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	bosses, achievements := 0, 0
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for i := range pack.Bosses {
			def := pack.Bosses[i]
			if def.Name == "" || def.BaseTargetCount <= 0 || def.TimeLimitMs <= 0 {
				return fmt.Errorf("boss %q: name, base_target_count and time_limit_ms are required", def.Name)
			}
			if def.ID == "" {
				def.ID = slug.Make(def.Name)
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&def).Error; err != nil {
				return err
			}
			bosses++
		}
		for i := range pack.Achievements {
			def := pack.Achievements[i]
			if def.Name == "" || len(def.Ranks) == 0 {
				return fmt.Errorf("achievement %q: name and ranks are required", def.Name)
			}
			if def.ID == "" {
				def.ID = slug.Make(def.Name)
			}
			// Re-key tiers so re-imports replace rather than accumulate.
			if err := tx.Where("achievement_id = ?", def.ID).Delete(&models.AchievementRank{}).Error; err != nil {
				return err
			}
			for j := range def.Ranks {
				def.Ranks[j].ID = uuid.NewString()
				def.Ranks[j].AchievementID = def.ID
				if def.Ranks[j].Rank == 0 {
					def.Ranks[j].Rank = j + 1
				}
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&def).Error; err != nil {
				return err
			}
			achievements++
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "import failed", "cause": err.Error()})
	}

	log.Printf("📦 Catalog pack imported: %d boss(es), %d achievement(s)", bosses, achievements)
	return c.JSON(fiber.Map{
		"bosses":       bosses,
		"achievements": achievements,
	})
}

func readCatalogPack(dir string) (*catalogPack, error) {
	pack := &catalogPack{}
	found := false

	if raw, err := os.ReadFile(filepath.Join(dir, "bosses.json")); err == nil {
		if err := json.Unmarshal(raw, &pack.Bosses); err != nil {
			return nil, fmt.Errorf("bosses.json: %w", err)
		}
		found = true
	}
	if raw, err := os.ReadFile(filepath.Join(dir, "achievements.json")); err == nil {
		if err := json.Unmarshal(raw, &pack.Achievements); err != nil {
			return nil, fmt.Errorf("achievements.json: %w", err)
		}
		found = true
	}
	if !found {
		return nil, errors.New("pack contains neither bosses.json nor achievements.json")
	}
	return pack, nil
}

func formInt(c *fiber.Ctx, key string) (int, error) {
	v, err := formInt64(c, key)
	return int(v), err
}

func formInt64(c *fiber.Ctx, key string) (int64, error) {
	raw := c.FormValue(key)
	if raw == "" {
		return 0, nil
	}
	var v int64
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
		return 0, err
	}
	return v, nil
}

// SeedDefaultBosses installs a starter boss catalog when the table is empty.
func SeedDefaultBosses(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.BossDefinition{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	defaults := []models.BossDefinition{
		{
			ID: "iron-fist", Name: "Iron Fist", Metric: "pushups",
			BaseTargetCount: 50, TimeLimitMs: 30 * 60 * 1000,
			RewardExp: 200, RewardGold: 100, RewardTitle: "Iron-Willed",
			ScalingTargetCount: 10, ScalingRewardExp: 50, ScalingRewardGold: 25,
		},
		{
			ID: "the-scholar", Name: "The Scholar", Metric: "pages",
			BaseTargetCount: 30, TimeLimitMs: 2 * 60 * 60 * 1000,
			RewardExp: 150, RewardGold: 75,
			ScalingTargetCount: 5, ScalingRewardExp: 40, ScalingRewardGold: 20,
		},
		{
			ID: "marathon-shade", Name: "Marathon Shade", Metric: "km",
			BaseTargetCount: 5, TimeLimitMs: 60 * 60 * 1000,
			RewardExp: 300, RewardGold: 150, RewardTitle: "Unrelenting",
			ScalingTargetCount: 1, ScalingRewardExp: 75, ScalingRewardGold: 40,
		},
	}
	for i := range defaults {
		if err := db.Create(&defaults[i]).Error; err != nil {
			return err
		}
	}
	log.Printf("🌱 Seeded %d default bosses", len(defaults))
	return nil
}
