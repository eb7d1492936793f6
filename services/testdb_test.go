package services

import (
	"path/filepath"
	"testing"
	"time"

	"hunter-quest-system/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens a throwaway sqlite database with the full schema migrated.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "quests.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// Single connection so concurrent test transactions queue instead of
	// tripping sqlite's write-lock upgrade.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.HunterProfile{},
		&models.BossRecord{},
		&models.Quest{},
		&models.BossDefinition{},
		&models.ActiveBattle{},
		&models.AchievementDefinition{},
		&models.AchievementRank{},
		&models.PlayerAchievement{},
		&models.Notification{},
		&models.WaterIntake{},
		&models.WaterIntakeDay{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// testStack wires the full service graph against one test database.
type testStack struct {
	DB           *gorm.DB
	Ledger       *LedgerService
	Achievements *AchievementService
	Quests       *QuestService
	Battles      *BattleService
	Water        *WaterService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db := testDB(t)
	ledger := NewLedgerService(db)
	achievements := NewAchievementService(db, ledger)
	return &testStack{
		DB:           db,
		Ledger:       ledger,
		Achievements: achievements,
		Quests:       NewQuestService(db, ledger, achievements),
		Battles:      NewBattleService(db, ledger, achievements),
		Water:        NewWaterService(db, ledger),
	}
}

// mustProfile creates (or fetches) the ledger row for a test hunter.
func (ts *testStack) mustProfile(t *testing.T, userID string) *models.HunterProfile {
	t.Helper()
	prof, err := ts.Ledger.EnsureProfile(userID)
	if err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	return prof
}

// reloadProfile reads the current ledger state from the database.
func (ts *testStack) reloadProfile(t *testing.T, userID string) *models.HunterProfile {
	t.Helper()
	prof, err := ts.Ledger.GetProfile(userID)
	if err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	return prof
}

// day returns a fixed local time on the given date, well away from midnight.
func day(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 12, 0, 0, 0, time.UTC)
}

func countNotifications(t *testing.T, db *gorm.DB, userID, kind string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Notification{}).
		Where("external_user_id = ? AND type = ?", userID, kind).
		Count(&n).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return n
}
