package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hunter-quest-system/handlers"
	"hunter-quest-system/middleware"
	"hunter-quest-system/models"
	"hunter-quest-system/services"
	"hunter-quest-system/utils"
	"hunter-quest-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // 20MB — catalog imports and boss icons
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Session-Token, X-Service-Token, X-Device-ID, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

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
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	if err := services.SeedDefaultBosses(db); err != nil {
		log.Fatal("failed to seed boss catalog:", err)
	}
	if err := services.SeedDefaultAchievements(db); err != nil {
		log.Fatal("failed to seed achievement catalog:", err)
	}

	ledgerService := services.NewLedgerService(db)
	achievementService := services.NewAchievementService(db, ledgerService)
	questService := services.NewQuestService(db, ledgerService, achievementService)
	battleService := services.NewBattleService(db, ledgerService, achievementService)
	waterService := services.NewWaterService(db, ledgerService)
	catalogService := services.NewCatalogService(db)
	notificationService := services.NewNotificationService(db)

	// --- CONFIGURE Auth Service Details for SSE token validation ---
	authServiceURL := os.Getenv("AUTH_SERVICE_URL")
	if authServiceURL == "" {
		log.Fatal("AUTH_SERVICE_URL environment variable not set")
	}
	hunterServiceToken := os.Getenv("HUNTER_SERVICE_TOKEN")
	if hunterServiceToken == "" {
		log.Fatal("HUNTER_SERVICE_TOKEN environment variable not set")
	}
	// --- END CONFIG ---

	authClient := services.NewAuthServiceClient(authServiceURL, hunterServiceToken)

	checkpointPath := os.Getenv("RESET_CHECKPOINT_PATH")
	if checkpointPath == "" {
		checkpointPath = "./data/reset_checkpoint.json"
	}
	resetWorker := workers.NewDailyResetWorker(db, questService, checkpointPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting Daily Reset Worker...")
		resetWorker.Run(ctx, 5*time.Minute)
	}()

	battleService.StartTimeoutScheduler(30 * time.Second)

	// ✅ Setup routes — enforced Gateway auth + consistent /s/ prefix for admin
	handlers.SetupQuestRoutes(app, questService)
	handlers.SetupBattleRoutes(app, battleService)
	handlers.SetupProgressionRoutes(app, ledgerService, achievementService, battleService, waterService, notificationService, authClient)
	handlers.SetupCatalogRoutes(app, catalogService)

	app.Static("/uploads", "./uploads")

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Daily Reset Worker running (checks every 5m)")
	log.Println("✅ Battle timeout sweep running (every 30s)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
