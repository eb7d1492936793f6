// handlers/battle_routes.go
package handlers

import (
	"time"

	"hunter-quest-system/middleware"
	"hunter-quest-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupBattleRoutes(app *fiber.App, battleService *services.BattleService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/user/battles", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		battles, err := battleService.ListActiveBattles(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list battles",
				"cause": err.Error(),
			})
		}

		now := time.Now()
		response := make([]fiber.Map, 0, len(battles))
		for _, b := range battles {
			response = append(response, fiber.Map{
				"boss_id":       b.BossID,
				"target_count":  b.TargetCount,
				"current_count": b.CurrentCount,
				"start_time":    b.StartTime,
				"end_time":      b.EndTime,
				"remaining_ms":  b.Remaining(now).Milliseconds(),
				"expired":       b.Expired(now),
			})
		}
		return c.JSON(response)
	})

	secured.Post("/user/battles/:bossId/start", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		result, err := battleService.StartBattle(userID, c.Params("bossId"))
		if err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	})

	secured.Patch("/user/battles/:bossId/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Amount int `json:"amount"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		result, err := battleService.UpdateBattleProgress(userID, c.Params("bossId"), req.Amount)
		if err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(result)
	})

	secured.Post("/user/battles/:bossId/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		result, err := battleService.CompleteBossBattle(userID, c.Params("bossId"))
		if err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(result)
	})

	secured.Post("/user/battles/:bossId/timeout", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		result, err := battleService.HandleBossBattleTimeout(userID, c.Params("bossId"))
		if err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(result)
	})
}
