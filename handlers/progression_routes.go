// handlers/progression_routes.go
package handlers

import (
	"strconv"
	"time"

	"hunter-quest-system/middleware"
	"hunter-quest-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressionRoutes(app *fiber.App,
	ledger *services.LedgerService,
	achievements *services.AchievementService,
	battles *services.BattleService,
	water *services.WaterService,
	notifications *services.NotificationService,
	authClient *services.AuthServiceClient,
) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/user/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		prof, err := ledger.EnsureProfile(userID)
		if err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": "failed to load progress",
				"cause": err.Error(),
			})
		}

		percent := 0.0
		if prof.ExpNeeded > 0 {
			percent = float64(prof.Exp) / float64(prof.ExpNeeded) * 100
		}

		unlocked, err := achievements.ListPlayerAchievements(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load achievements",
				"cause": err.Error(),
			})
		}

		active, err := battles.ListActiveBattles(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load battles",
				"cause": err.Error(),
			})
		}
		now := time.Now()
		battleViews := make([]fiber.Map, 0, len(active))
		for i := range active {
			b := &active[i]
			battleViews = append(battleViews, fiber.Map{
				"boss_id":       b.BossID,
				"current_count": b.CurrentCount,
				"target_count":  b.TargetCount,
				"end_time":      b.EndTime,
				"remaining_ms":  b.Remaining(now).Milliseconds(),
				"expired":       b.Expired(now),
			})
		}

		return c.JSON(fiber.Map{
			"id":               prof.ID,
			"level":            prof.Level,
			"exp":              prof.Exp,
			"exp_needed":       prof.ExpNeeded,
			"exp_percent":      percent,
			"gold":             prof.Gold,
			"rank":             prof.Rank,
			"title":            prof.Title,
			"streak":           prof.Streak,
			"quests_completed": prof.QuestsCompleted,
			"last_daily_reset": prof.LastDailyReset,
			"last_penalty":     prof.LastPenalty,
			"last_level_up_at": prof.LastLevelUpAt,
			"last_rank_up_at":  prof.LastRankUpAt,
			"achievements":     unlocked,
			"active_battles":   battleViews,
		})
	})

	secured.Post("/user/progress/exp", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Amount int64 `json:"amount"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		result, err := ledger.AddExperiencePoints(userID, req.Amount)
		if err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		// New exp may have crossed achievement or rank thresholds.
		if _, err := achievements.CheckAchievements(userID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "achievement check failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(result)
	})

	secured.Post("/user/progress/penalty", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Amount int64 `json:"amount"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		result, err := ledger.ApplyPenalty(userID, req.Amount)
		if err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(result)
	})

	secured.Post("/user/progress/achievements/check", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		result, err := achievements.CheckAchievements(userID)
		if err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(result)
	})

	secured.Get("/user/progress/achievements", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		rows, err := achievements.ListPlayerAchievements(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list achievements",
				"cause": err.Error(),
			})
		}
		return c.JSON(rows)
	})

	secured.Post("/user/water", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Glasses int `json:"glasses"`
			Ml      int `json:"ml"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		result, err := water.RecordWaterIntake(userID, req.Glasses, req.Ml)
		if err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(result)
	})

	secured.Patch("/user/water/goal", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			DailyGoalGlasses *int `json:"daily_goal_glasses"`
			CupSizeMl        *int `json:"cup_size_ml"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		intake, err := water.UpdateGoal(userID, req.DailyGoalGlasses, req.CupSizeMl)
		if err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(intake)
	})

	secured.Get("/user/water/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		days, _ := strconv.Atoi(c.Query("days", "30"))
		rows, err := water.History(userID, days)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load history",
				"cause": err.Error(),
			})
		}
		return c.JSON(rows)
	})

	secured.Get("/user/notifications", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		unread := c.Query("unread") == "true"
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		rows, err := notifications.List(userID, unread, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list notifications",
				"cause": err.Error(),
			})
		}
		return c.JSON(rows)
	})

	secured.Patch("/user/notifications/:id/read", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		if err := notifications.MarkRead(userID, c.Params("id")); err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "marked read"})
	})

	secured.Delete("/user/notifications", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		n, err := notifications.Clear(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to clear notifications",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"deleted": n})
	})

	// SSE stream authenticates via query params (EventSource can't set headers).
	app.Get("/user/notifications/stream",
		middleware.SSEAuthMiddleware(authClient),
		notifications.StreamUserNotificationsSSE)

	// Admin endpoints
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	admin.Post("/xp/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id" validate:"required,uuid"`
			Amount int64  `json:"amount" validate:"required,min=1"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		result, err := ledger.AddExperiencePoints(req.UserID, req.Amount)
		if err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(result)
	})

	admin.Post("/penalty", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id" validate:"required,uuid"`
			Amount int64  `json:"amount" validate:"required,min=1"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		result, err := ledger.ApplyPenalty(req.UserID, req.Amount)
		if err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(result)
	})
}
