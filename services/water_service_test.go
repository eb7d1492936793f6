package services

import (
	"errors"
	"testing"

	"hunter-quest-system/models"
)

func TestRecordWaterIntakeByGlassesAndMl(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")

	res, err := ts.Water.RecordWaterIntake("hunter-1", 2, 0)
	if err != nil {
		t.Fatalf("record 2 glasses: %v", err)
	}
	if res.Intake.CurrentGlasses != 2 {
		t.Errorf("CurrentGlasses = %d, want 2", res.Intake.CurrentGlasses)
	}

	// 600ml at the default 250ml cup adds 2 more glasses.
	res, err = ts.Water.RecordWaterIntake("hunter-1", 0, 600)
	if err != nil {
		t.Fatalf("record 600ml: %v", err)
	}
	if res.Intake.CurrentGlasses != 4 {
		t.Errorf("CurrentGlasses = %d, want 4", res.Intake.CurrentGlasses)
	}

	// Below one cup rounds down to nothing and is rejected.
	if _, err := ts.Water.RecordWaterIntake("hunter-1", 0, 100); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("100ml: err = %v, want ErrInvalidInput", err)
	}
}

func TestRecordWaterIntakeRejectsNonPositive(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")

	if _, err := ts.Water.RecordWaterIntake("hunter-1", 0, 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	if _, err := ts.Water.RecordWaterIntake("hunter-1", -3, 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestWaterGoalNotifiesOnCrossingOnly(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")

	res, err := ts.Water.RecordWaterIntake("hunter-1", 8, 0)
	if err != nil {
		t.Fatalf("record 8: %v", err)
	}
	if !res.GoalReached || res.Notification == nil {
		t.Errorf("crossing the goal: reached=%t notif=%v", res.GoalReached, res.Notification)
	}

	res, err = ts.Water.RecordWaterIntake("hunter-1", 1, 0)
	if err != nil {
		t.Fatalf("record past goal: %v", err)
	}
	if res.GoalReached || res.Notification != nil {
		t.Error("already past the goal: must not notify again")
	}

	if n := countNotifications(t, ts.DB, "hunter-1", models.NotificationWaterGoal); n != 1 {
		t.Errorf("water goal notifications = %d, want 1", n)
	}
}

func TestUpdateGoal(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")

	goal, cup := 10, 300
	intake, err := ts.Water.UpdateGoal("hunter-1", &goal, &cup)
	if err != nil {
		t.Fatalf("UpdateGoal: %v", err)
	}
	if intake.DailyGoalGlasses != 10 || intake.CupSizeMl != 300 {
		t.Errorf("goal = %d glasses, %dml cup; want 10/300", intake.DailyGoalGlasses, intake.CupSizeMl)
	}

	// Partial update keeps the other field.
	goal = 6
	intake, err = ts.Water.UpdateGoal("hunter-1", &goal, nil)
	if err != nil {
		t.Fatalf("UpdateGoal partial: %v", err)
	}
	if intake.DailyGoalGlasses != 6 || intake.CupSizeMl != 300 {
		t.Errorf("after partial = %d/%d, want 6/300", intake.DailyGoalGlasses, intake.CupSizeMl)
	}

	bad := 0
	if _, err := ts.Water.UpdateGoal("hunter-1", &bad, nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero goal: err = %v, want ErrInvalidInput", err)
	}
	if _, err := ts.Water.UpdateGoal("hunter-1", nil, &bad); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero cup: err = %v, want ErrInvalidInput", err)
	}
}

func TestEnsureIntakeDefaults(t *testing.T) {
	ts := newTestStack(t)
	ts.mustProfile(t, "hunter-1")

	intake, err := ts.Water.EnsureIntake("hunter-1")
	if err != nil {
		t.Fatalf("EnsureIntake: %v", err)
	}
	if intake.DailyGoalGlasses != 8 || intake.CupSizeMl != 250 {
		t.Errorf("defaults = %d glasses, %dml; want 8/250", intake.DailyGoalGlasses, intake.CupSizeMl)
	}

	again, err := ts.Water.EnsureIntake("hunter-1")
	if err != nil {
		t.Fatalf("EnsureIntake again: %v", err)
	}
	if again.ID != intake.ID {
		t.Error("EnsureIntake must be idempotent")
	}
}
