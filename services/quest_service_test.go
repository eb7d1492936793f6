package services

import (
	"errors"
	"testing"
	"time"
)

func TestCreateQuestValidation(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")

	cases := []struct {
		name string
		in   QuestInput
	}{
		{"missing title", QuestInput{Metric: "pushups", TargetCount: 10}},
		{"missing metric", QuestInput{Title: "Pushups", TargetCount: 10}},
		{"zero target", QuestInput{Title: "Pushups", Metric: "pushups"}},
		{"negative target", QuestInput{Title: "Pushups", Metric: "pushups", TargetCount: -1}},
	}
	for _, c := range cases {
		if _, err := ts.Quests.CreateQuest("hunter-1", c.in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", c.name, err)
		}
	}
}

func TestCreateQuestStampsDailyReset(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")
	now := day(2026, time.March, 1)

	daily, err := ts.Quests.CreateQuestAt("hunter-1", QuestInput{
		Title: "Read", Metric: "pages", TargetCount: 20, Daily: true,
	}, now)
	if err != nil {
		t.Fatalf("CreateQuestAt: %v", err)
	}
	if daily.LastReset == nil {
		t.Error("daily quest must carry an initial LastReset")
	}

	normal, err := ts.Quests.CreateQuestAt("hunter-1", QuestInput{
		Title: "Run 5k", Metric: "km", TargetCount: 5,
	}, now)
	if err != nil {
		t.Fatalf("CreateQuestAt: %v", err)
	}
	if normal.LastReset != nil {
		t.Error("normal quest must not carry LastReset")
	}
}

func TestUpdateQuestProgressClampsAndCompletes(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")
	now := day(2026, time.March, 1)

	quest, err := ts.Quests.CreateQuestAt("hunter-1", QuestInput{
		Title: "Pushups", Metric: "pushups", TargetCount: 10,
	}, now)
	if err != nil {
		t.Fatalf("CreateQuestAt: %v", err)
	}

	res, err := ts.Quests.UpdateQuestProgressAt("hunter-1", quest.ID, 4, now)
	if err != nil {
		t.Fatalf("progress +4: %v", err)
	}
	if res.Completed || res.Quest.CurrentCount != 4 {
		t.Errorf("after +4: completed=%t count=%d, want false/4", res.Completed, res.Quest.CurrentCount)
	}

	// Negative progress clamps at zero.
	res, err = ts.Quests.UpdateQuestProgressAt("hunter-1", quest.ID, -100, now)
	if err != nil {
		t.Fatalf("progress -100: %v", err)
	}
	if res.Quest.CurrentCount != 0 {
		t.Errorf("after -100: count = %d, want 0", res.Quest.CurrentCount)
	}

	// Overshoot clamps at the target and completes.
	res, err = ts.Quests.UpdateQuestProgressAt("hunter-1", quest.ID, 100, now)
	if err != nil {
		t.Fatalf("progress +100: %v", err)
	}
	if !res.Completed || !res.Deleted {
		t.Errorf("overshoot: completed=%t deleted=%t, want both true", res.Completed, res.Deleted)
	}
	if res.StreakDelta != 0 {
		t.Errorf("normal quest moved the streak by %d", res.StreakDelta)
	}

	prof := ts.reloadProfile(t, "hunter-1")
	if prof.Exp != NormalQuestRewardExp || prof.Gold != NormalQuestRewardGold {
		t.Errorf("payout = %d exp, %d gold; want %d/%d",
			prof.Exp, prof.Gold, NormalQuestRewardExp, NormalQuestRewardGold)
	}
	if prof.QuestsCompleted != 1 {
		t.Errorf("QuestsCompleted = %d, want 1", prof.QuestsCompleted)
	}

	// One-shot: the row is gone.
	quests, err := ts.Quests.ListQuests("hunter-1")
	if err != nil {
		t.Fatalf("ListQuests: %v", err)
	}
	if len(quests) != 0 {
		t.Errorf("quest list has %d rows, want 0 after one-shot completion", len(quests))
	}
}

func TestDailyQuestPaysOncePerCalendarDay(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")
	day1 := day(2026, time.March, 1)

	quest, err := ts.Quests.CreateQuestAt("hunter-1", QuestInput{
		Title: "Meditate", Metric: "minutes", TargetCount: 10, Daily: true,
	}, day1)
	if err != nil {
		t.Fatalf("CreateQuestAt: %v", err)
	}

	res, err := ts.Quests.CompleteQuestAt("hunter-1", quest.ID, day1)
	if err != nil {
		t.Fatalf("CompleteQuestAt: %v", err)
	}
	if !res.Completed || res.Deleted {
		t.Errorf("daily completion: completed=%t deleted=%t, want true/false", res.Completed, res.Deleted)
	}
	if res.StreakDelta != 1 {
		t.Errorf("first daily completion: StreakDelta = %d, want 1", res.StreakDelta)
	}

	prof := ts.reloadProfile(t, "hunter-1")
	if prof.Exp != DailyQuestRewardExp || prof.Gold != DailyQuestRewardGold {
		t.Errorf("payout = %d exp, %d gold; want %d/%d",
			prof.Exp, prof.Gold, DailyQuestRewardExp, DailyQuestRewardGold)
	}

	// Same calendar day, even hours later: no second payout.
	later := day1.Add(9 * time.Hour)
	if _, err := ts.Quests.CompleteQuestAt("hunter-1", quest.ID, later); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("second completion: err = %v, want ErrAlreadyCompleted", err)
	}
}

func TestDailyStreakAcrossDays(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")

	quest, err := ts.Quests.CreateQuestAt("hunter-1", QuestInput{
		Title: "Stretch", Metric: "minutes", TargetCount: 5, Daily: true,
	}, day(2026, time.March, 1))
	if err != nil {
		t.Fatalf("CreateQuestAt: %v", err)
	}

	complete := func(at time.Time) *QuestResult {
		t.Helper()
		res, err := ts.Quests.CompleteQuestAt("hunter-1", quest.ID, at)
		if err != nil {
			t.Fatalf("CompleteQuestAt(%s): %v", at.Format("2006-01-02"), err)
		}
		return res
	}

	complete(day(2026, time.March, 1))
	complete(day(2026, time.March, 2))
	if prof := ts.reloadProfile(t, "hunter-1"); prof.Streak != 2 {
		t.Errorf("consecutive days: Streak = %d, want 2", prof.Streak)
	}

	// A skipped day restarts the chain at 1.
	complete(day(2026, time.March, 4))
	if prof := ts.reloadProfile(t, "hunter-1"); prof.Streak != 1 {
		t.Errorf("after gap: Streak = %d, want 1", prof.Streak)
	}
}

func TestUpdateProgressUnknownQuest(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")

	if _, err := ts.Quests.UpdateQuestProgress("hunter-1", "no-such-quest", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestQuestsAreScopedToTheirOwner(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")
	ts.mustProfile(t, "hunter-2")

	quest, err := ts.Quests.CreateQuest("hunter-1", QuestInput{
		Title: "Pushups", Metric: "pushups", TargetCount: 10,
	})
	if err != nil {
		t.Fatalf("CreateQuest: %v", err)
	}

	if _, err := ts.Quests.CompleteQuest("hunter-2", quest.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user completion: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteQuest(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")

	quest, err := ts.Quests.CreateQuest("hunter-1", QuestInput{
		Title: "Pushups", Metric: "pushups", TargetCount: 10,
	})
	if err != nil {
		t.Fatalf("CreateQuest: %v", err)
	}

	if err := ts.Quests.DeleteQuest("hunter-1", quest.ID); err != nil {
		t.Fatalf("DeleteQuest: %v", err)
	}
	if err := ts.Quests.DeleteQuest("hunter-1", quest.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}

	// No payout side effects from deletion.
	if prof := ts.reloadProfile(t, "hunter-1"); prof.Exp != 0 || prof.Gold != 0 {
		t.Errorf("delete paid out %d exp / %d gold", prof.Exp, prof.Gold)
	}
}

func TestListQuestsOrdersDailyFirst(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")

	if _, err := ts.Quests.CreateQuest("hunter-1", QuestInput{
		Title: "One-shot", Metric: "reps", TargetCount: 3,
	}); err != nil {
		t.Fatalf("CreateQuest: %v", err)
	}
	if _, err := ts.Quests.CreateQuest("hunter-1", QuestInput{
		Title: "Every day", Metric: "reps", TargetCount: 3, Daily: true,
	}); err != nil {
		t.Fatalf("CreateQuest: %v", err)
	}

	quests, err := ts.Quests.ListQuests("hunter-1")
	if err != nil {
		t.Fatalf("ListQuests: %v", err)
	}
	if len(quests) != 2 {
		t.Fatalf("got %d quests, want 2", len(quests))
	}
	if !quests[0].Daily {
		t.Error("daily quest should sort first")
	}
}
