package workers

import (
	"path/filepath"
	"testing"
	"time"

	"hunter-quest-system/models"
	"hunter-quest-system/services"
	"hunter-quest-system/utils"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func workerFixture(t *testing.T) (*DailyResetWorker, *services.LedgerService, *services.QuestService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "worker.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.HunterProfile{},
		&models.Quest{},
		&models.AchievementDefinition{},
		&models.AchievementRank{},
		&models.PlayerAchievement{},
		&models.Notification{},
		&models.WaterIntake{},
		&models.WaterIntakeDay{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ledger := services.NewLedgerService(db)
	achievements := services.NewAchievementService(db, ledger)
	quests := services.NewQuestService(db, ledger, achievements)
	worker := NewDailyResetWorker(db, quests, filepath.Join(t.TempDir(), "checkpoint.json"))
	return worker, ledger, quests
}

func TestTickResetsEveryProfileAndAdvancesCheckpoint(t *testing.T) {
	worker, ledger, quests := workerFixture(t)
	day1 := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	for _, userID := range []string{"hunter-1", "hunter-2"} {
		if _, err := ledger.EnsureProfile(userID); err != nil {
			t.Fatalf("profile %s: %v", userID, err)
		}
		if _, err := quests.CreateQuestAt(userID, services.QuestInput{
			Title: "Run", Metric: "km", TargetCount: 5, Daily: true,
		}, day1); err != nil {
			t.Fatalf("quest %s: %v", userID, err)
		}
		if _, err := ledger.AddExperiencePoints(userID, 50); err != nil {
			t.Fatalf("seed exp %s: %v", userID, err)
		}
	}

	worker.Tick(day2)

	for _, userID := range []string{"hunter-1", "hunter-2"} {
		prof, err := ledger.GetProfile(userID)
		if err != nil {
			t.Fatalf("profile %s: %v", userID, err)
		}
		if prof.Exp != 50-services.DailyMissPenaltyExp {
			t.Errorf("%s exp = %d, want %d", userID, prof.Exp, 50-services.DailyMissPenaltyExp)
		}
		if prof.LastDailyReset == nil {
			t.Errorf("%s missing LastDailyReset stamp", userID)
		}
	}

	cp := utils.LoadResetCheckpoint(worker.CheckpointPath)
	if cp.LastResetDay != utils.Day(day2) {
		t.Errorf("checkpoint = %q, want %q", cp.LastResetDay, utils.Day(day2))
	}
}

func TestTickSkipsWhenCheckpointCurrent(t *testing.T) {
	worker, ledger, quests := workerFixture(t)
	day2 := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

	if _, err := ledger.EnsureProfile("hunter-1"); err != nil {
		t.Fatalf("profile: %v", err)
	}
	if _, err := quests.CreateQuestAt("hunter-1", services.QuestInput{
		Title: "Run", Metric: "km", TargetCount: 5, Daily: true,
	}, day2.AddDate(0, 0, -1)); err != nil {
		t.Fatalf("quest: %v", err)
	}
	if err := utils.SaveResetCheckpoint(worker.CheckpointPath, utils.ResetCheckpoint{
		LastResetDay: utils.Day(day2),
	}); err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}

	worker.Tick(day2)

	prof, err := ledger.GetProfile("hunter-1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if prof.Exp != 0 || prof.LastDailyReset != nil {
		t.Error("tick with a current checkpoint must not touch profiles")
	}
}

func TestTickLateAndRepeatedConvergence(t *testing.T) {
	worker, ledger, quests := workerFixture(t)
	day1 := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	day4 := day1.AddDate(0, 0, 3)

	if _, err := ledger.EnsureProfile("hunter-1"); err != nil {
		t.Fatalf("profile: %v", err)
	}
	if _, err := ledger.AddExperiencePoints("hunter-1", 50); err != nil {
		t.Fatalf("seed exp: %v", err)
	}
	if _, err := quests.CreateQuestAt("hunter-1", services.QuestInput{
		Title: "Run", Metric: "km", TargetCount: 5, Daily: true,
	}, day1); err != nil {
		t.Fatalf("quest: %v", err)
	}

	// Days of downtime collapse into one boundary pass, and a repeat of
	// that pass changes nothing.
	worker.Tick(day4)
	worker.Tick(day4.Add(time.Hour))

	prof, err := ledger.GetProfile("hunter-1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	want := int64(50 - services.DailyMissPenaltyExp)
	if prof.Exp != want {
		t.Errorf("exp = %d, want %d (single penalty despite gap and repeat)", prof.Exp, want)
	}
}
