// handlers/catalog_routes.go
package handlers

import (
	"hunter-quest-system/middleware"
	"hunter-quest-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCatalogRoutes(app *fiber.App, catalog *services.CatalogService) {
	// Read-only catalog is user-facing.
	secured := app.Group("/", middleware.UserContextMiddleware())
	secured.Get("/catalog/bosses", catalog.ListBosses)
	secured.Get("/catalog/achievements", catalog.ListAchievements)

	// Mutations are admin-only.
	admin := app.Group("/s/admin/catalog", middleware.UserContextMiddleware(), middleware.RequireAdmin())
	admin.Post("/bosses", catalog.CreateBoss)
	admin.Put("/bosses/:id", catalog.UpdateBoss)
	admin.Delete("/bosses/:id", catalog.DeleteBoss)
	admin.Post("/achievements", catalog.CreateAchievement)
	admin.Delete("/achievements/:id", catalog.DeleteAchievement)
	admin.Post("/import", catalog.ImportCatalog)
}
