package workers

import (
	"context"
	"log"
	"time"

	"hunter-quest-system/models"
	"hunter-quest-system/services"
	"hunter-quest-system/utils"

	"gorm.io/gorm"
)

// DailyResetWorker drives the day-boundary cycle. It does not assume
// continuous uptime: each tick compares today against a local checkpoint
// file, and the per-profile LastDailyReset guard makes the whole pass
// idempotent, so a tick that fires late, twice, or after days of downtime
// converges to the same state as one on-time run.
type DailyResetWorker struct {
	DB             *gorm.DB
	Quests         *services.QuestService
	CheckpointPath string
}

func NewDailyResetWorker(db *gorm.DB, quests *services.QuestService, checkpointPath string) *DailyResetWorker {
	return &DailyResetWorker{
		DB:             db,
		Quests:         quests,
		CheckpointPath: checkpointPath,
	}
}

// Run polls for a day boundary until ctx is cancelled.
func (w *DailyResetWorker) Run(ctx context.Context, pollInterval time.Duration) {
	log.Println("Starting daily reset worker (checkpoint-backed)...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	// First check immediately so a restart that straddled midnight doesn't
	// wait a full interval to settle accounts.
	w.Tick(time.Now())

	for {
		select {
		case <-ctx.Done():
			log.Println("Daily reset worker stopped.")
			return
		case <-ticker.C:
			w.Tick(time.Now())
		}
	}
}

// Tick runs one boundary check. Exported so tests can drive the clock.
func (w *DailyResetWorker) Tick(now time.Time) {
	today := utils.Day(now)
	cp := utils.LoadResetCheckpoint(w.CheckpointPath)
	if cp.LastResetDay == today {
		return // boundary already handled for this day
	}

	var userIDs []string
	if err := w.DB.Model(&models.HunterProfile{}).
		Pluck("external_user_id", &userIDs).Error; err != nil {
		log.Printf("❌ Reset worker failed to list profiles: %v", err)
		return // retry same window next tick, checkpoint untouched
	}

	applied := 0
	failed := 0
	for _, userID := range userIDs {
		res, err := w.Quests.CheckDailyQuestResetAt(userID, now)
		if err != nil {
			failed++
			log.Printf("❌ Daily reset failed for %s: %v", userID, err)
			continue
		}
		if res.Applied {
			applied++
		}
	}

	if failed > 0 {
		// Leave the checkpoint alone so the failed profiles are retried;
		// already-reset profiles no-op on the next pass.
		log.Printf("⚠️ Daily reset incomplete: %d applied, %d failed (will retry)", applied, failed)
		return
	}

	if err := utils.SaveResetCheckpoint(w.CheckpointPath, utils.ResetCheckpoint{LastResetDay: today}); err != nil {
		log.Printf("❌ Failed to persist reset checkpoint: %v", err)
		return
	}
	log.Printf("🌅 Day boundary handled: %d profile(s) reset for %s", applied, today)
}
