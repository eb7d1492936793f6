// handlers/quest_routes.go
package handlers

import (
	"hunter-quest-system/middleware"
	"hunter-quest-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupQuestRoutes(app *fiber.App, questService *services.QuestService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/user/quests", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		quests, err := questService.ListQuests(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list quests",
				"cause": err.Error(),
			})
		}
		return c.JSON(quests)
	})

	secured.Post("/user/quests", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req services.QuestInput
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		quest, err := questService.CreateQuest(userID, req)
		if err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(quest)
	})

	secured.Patch("/user/quests/:id/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Amount   int  `json:"amount"`
			Complete bool `json:"complete"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		var result *services.QuestResult
		var err error
		if req.Complete {
			result, err = questService.CompleteQuest(userID, c.Params("id"))
		} else {
			result, err = questService.UpdateQuestProgress(userID, c.Params("id"), req.Amount)
		}
		if err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(result)
	})

	secured.Post("/user/quests/:id/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		result, err := questService.CompleteQuest(userID, c.Params("id"))
		if err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(result)
	})

	secured.Delete("/user/quests/:id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		if err := questService.DeleteQuest(userID, c.Params("id")); err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "quest deleted"})
	})

	// Manual boundary check — the UI calls this on resume so a suspended
	// session settles yesterday's accounts without waiting for the worker.
	secured.Post("/user/quests/reset-check", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		result, err := questService.CheckDailyQuestReset(userID)
		if err != nil {
			return c.Status(services.StatusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(result)
	})
}
