package services

import (
	"testing"
	"time"

	"hunter-quest-system/models"
)

func TestNeedsDailyReset(t *testing.T) {
	noon := day(2026, time.March, 1)

	if !NeedsDailyReset(nil, noon) {
		t.Error("nil checkpoint must force a reset")
	}

	sameDay := noon.Add(8 * time.Hour)
	if NeedsDailyReset(&noon, sameDay) {
		t.Error("same calendar day must not reset")
	}

	nextDay := noon.Add(13 * time.Hour) // past midnight but under 24h elapsed
	if !NeedsDailyReset(&noon, nextDay) {
		t.Error("crossing midnight must reset even under 24h elapsed")
	}

	muchLater := noon.AddDate(0, 0, 5)
	if !NeedsDailyReset(&noon, muchLater) {
		t.Error("multi-day gap must reset")
	}
}

func TestDailyResetPenalizesOutgoingDayThenResets(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")
	day1 := day(2026, time.March, 1)
	day2 := day(2026, time.March, 2)

	done, err := ts.Quests.CreateQuestAt("hunter-1", QuestInput{
		Title: "Meditate", Metric: "minutes", TargetCount: 10, Daily: true,
	}, day1)
	if err != nil {
		t.Fatalf("CreateQuestAt: %v", err)
	}
	if _, err := ts.Quests.CreateQuestAt("hunter-1", QuestInput{
		Title: "Run", Metric: "km", TargetCount: 5, Daily: true,
	}, day1); err != nil {
		t.Fatalf("CreateQuestAt: %v", err)
	}

	// One quest done (+50 exp, +25 gold), the other missed. Water at 5/8.
	if _, err := ts.Quests.CompleteQuestAt("hunter-1", done.ID, day1); err != nil {
		t.Fatalf("CompleteQuestAt: %v", err)
	}
	if _, err := ts.Water.RecordWaterIntake("hunter-1", 5, 0); err != nil {
		t.Fatalf("RecordWaterIntake: %v", err)
	}

	res, err := ts.Quests.CheckDailyQuestResetAt("hunter-1", day2)
	if err != nil {
		t.Fatalf("CheckDailyQuestResetAt: %v", err)
	}
	if !res.Applied {
		t.Fatal("boundary crossed but reset not applied")
	}
	if res.QuestsPenalized != 1 || res.QuestsReset != 2 {
		t.Errorf("penalized=%d reset=%d, want 1/2", res.QuestsPenalized, res.QuestsReset)
	}
	if res.WaterDeficit != 3 {
		t.Errorf("WaterDeficit = %d, want 3", res.WaterDeficit)
	}

	// Accounting ran against the outgoing day: 1 missed quest (30) plus
	// 3 missed glasses (15) leaves 50 - 45 = 5 exp. The completed quest
	// keeps its reward.
	prof := ts.reloadProfile(t, "hunter-1")
	if prof.Exp != 5 || prof.Level != 1 {
		t.Errorf("profile = lvl %d, exp %d; want 1, 5", prof.Level, prof.Exp)
	}
	if prof.Gold != DailyQuestRewardGold {
		t.Errorf("Gold = %d, want %d untouched", prof.Gold, DailyQuestRewardGold)
	}
	if prof.LastDailyReset == nil || prof.LastPenalty == nil {
		t.Error("reset and penalty stamps missing")
	}

	// Quests are fresh again.
	quests, err := ts.Quests.ListQuests("hunter-1")
	if err != nil {
		t.Fatalf("ListQuests: %v", err)
	}
	for _, q := range quests {
		if q.Completed || q.CurrentCount != 0 {
			t.Errorf("quest %q not reset: completed=%t count=%d", q.Title, q.Completed, q.CurrentCount)
		}
	}

	// Water archived and zeroed; 5/8 breaks the water streak.
	intake, err := ts.Water.EnsureIntake("hunter-1")
	if err != nil {
		t.Fatalf("EnsureIntake: %v", err)
	}
	if intake.CurrentGlasses != 0 || intake.StreakDays != 0 {
		t.Errorf("water = %d glasses, streak %d; want 0/0", intake.CurrentGlasses, intake.StreakDays)
	}
	var history []models.WaterIntakeDay
	if err := ts.DB.Where("external_user_id = ?", "hunter-1").Find(&history).Error; err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(history) != 1 || history[0].Glasses != 5 {
		t.Errorf("history = %+v, want one day with 5 glasses", history)
	}
}

func TestDailyResetIsIdempotentWithinADay(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")
	day2 := day(2026, time.March, 2)

	if _, err := ts.Quests.CreateQuestAt("hunter-1", QuestInput{
		Title: "Run", Metric: "km", TargetCount: 5, Daily: true,
	}, day(2026, time.March, 1)); err != nil {
		t.Fatalf("CreateQuestAt: %v", err)
	}

	first, err := ts.Quests.CheckDailyQuestResetAt("hunter-1", day2)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if !first.Applied {
		t.Fatal("first check should apply")
	}
	expAfter := ts.reloadProfile(t, "hunter-1").Exp

	second, err := ts.Quests.CheckDailyQuestResetAt("hunter-1", day2.Add(4*time.Hour))
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if second.Applied {
		t.Error("second check within the same day must be a no-op")
	}
	if got := ts.reloadProfile(t, "hunter-1").Exp; got != expAfter {
		t.Errorf("second check moved exp %d → %d", expAfter, got)
	}
	if n := countNotifications(t, ts.DB, "hunter-1", models.NotificationDailySummary); n != 1 {
		t.Errorf("daily summaries = %d, want 1", n)
	}
}

func TestDailyResetPaysWaterSurplusBonus(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")
	day1 := day(2026, time.March, 1)

	// 10 glasses against the default goal of 8.
	if _, err := ts.Water.RecordWaterIntake("hunter-1", 10, 0); err != nil {
		t.Fatalf("RecordWaterIntake: %v", err)
	}

	res, err := ts.Quests.CheckDailyQuestResetAt("hunter-1", day1.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("CheckDailyQuestResetAt: %v", err)
	}
	if res.WaterSurplus != 2 {
		t.Errorf("WaterSurplus = %d, want 2", res.WaterSurplus)
	}

	prof := ts.reloadProfile(t, "hunter-1")
	if prof.Gold != 2*WaterBonusGold {
		t.Errorf("Gold = %d, want %d surplus bonus", prof.Gold, 2*WaterBonusGold)
	}
	if prof.Exp != 0 {
		t.Errorf("Exp = %d, want 0 (no quests, goal met)", prof.Exp)
	}
	if prof.LastPenalty != nil {
		t.Error("bonus-only day must not stamp LastPenalty")
	}

	intake, err := ts.Water.EnsureIntake("hunter-1")
	if err != nil {
		t.Fatalf("EnsureIntake: %v", err)
	}
	if intake.StreakDays != 1 {
		t.Errorf("water streak = %d, want 1 after meeting the goal", intake.StreakDays)
	}
}

func TestDailyResetCleanDayLeavesLedgerAlone(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")

	// No quests, no water tracking: nothing to account.
	res, err := ts.Quests.CheckDailyQuestResetAt("hunter-1", day(2026, time.March, 2))
	if err != nil {
		t.Fatalf("CheckDailyQuestResetAt: %v", err)
	}
	if !res.Applied {
		t.Error("boundary still advances on a clean day")
	}
	if res.Deltas != nil || res.Notification != nil {
		t.Error("clean day must not produce deltas or a summary")
	}

	prof := ts.reloadProfile(t, "hunter-1")
	if prof.Exp != 0 || prof.Gold != 0 || prof.LastPenalty != nil {
		t.Errorf("clean day touched the ledger: %+v", prof)
	}
}

func TestExplicitResetStillPenalizesFirst(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")
	day1 := day(2026, time.March, 1)

	if _, err := ts.Quests.CreateQuestAt("hunter-1", QuestInput{
		Title: "Run", Metric: "km", TargetCount: 5, Daily: true,
	}, day1); err != nil {
		t.Fatalf("CreateQuestAt: %v", err)
	}
	if _, err := ts.Ledger.AddExperiencePoints("hunter-1", 50); err != nil {
		t.Fatalf("seed exp: %v", err)
	}

	res, err := ts.Quests.ResetDailyQuestsAt("hunter-1", day1.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ResetDailyQuestsAt: %v", err)
	}
	if res.QuestsPenalized != 1 {
		t.Errorf("QuestsPenalized = %d, want 1", res.QuestsPenalized)
	}
	if got := ts.reloadProfile(t, "hunter-1").Exp; got != 50-DailyMissPenaltyExp {
		t.Errorf("Exp = %d, want %d", got, 50-DailyMissPenaltyExp)
	}
}
