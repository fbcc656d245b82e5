package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matchmaking-service/handlers"
	"matchmaking-service/middleware"
	"matchmaking-service/models"
	"matchmaking-service/services"
	"matchmaking-service/utils"
	"matchmaking-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New()

	// All requests must come through the Gateway.
	app.Use(middleware.GatewayAuthMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: utils.EnvOr("ALLOWED_ORIGINS", "http://localhost:3000"),
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-Service-Token",
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Room{},
		&models.CandidateEntry{},
		&models.Competition{},
		&models.CompetitionParticipant{},
		&models.Tier{},
		&models.PlayerProfile{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// Seed the tier catalogue; existing rows are left untouched.
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.DefaultTiers).Error; err != nil {
		log.Fatal("failed to seed tier catalogue:", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     utils.EnvOr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       utils.EnvIntOr("REDIS_DB", 0),
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("❌ Failed to connect to Redis:", err)
	}

	matchConfig := services.DefaultMatchConfig()
	matchConfig.RetryWindow = utils.EnvDurationOr("MATCH_RETRY_WINDOW", matchConfig.RetryWindow)
	matchConfig.BatchSize = utils.EnvIntOr("MATCH_BATCH_SIZE", matchConfig.BatchSize)
	matchConfig.PingTTL = utils.EnvDurationOr("ROOM_PING_TTL", matchConfig.PingTTL)
	matchConfig.SweepInterval = utils.EnvDurationOr("MATCH_SWEEP_INTERVAL", matchConfig.SweepInterval)
	matchConfig.ReapInterval = utils.EnvDurationOr("ROOM_REAP_INTERVAL", matchConfig.ReapInterval)
	matchConfig.LanguageFallback = utils.EnvBoolOr("MATCH_LANGUAGE_FALLBACK", matchConfig.LanguageFallback)

	arrivalQueue := services.NewRedisArrivalQueue(redisClient)
	notifier := services.NewRedisNotifier(redisClient)
	generator := utils.NewGeminiClient(utils.EnvDurationOr("GENERATE_TIMEOUT", 30*time.Second))

	profileService := services.NewProfileService(db)
	roomService := services.NewRoomService(db, profileService, arrivalQueue)
	claimService := services.NewClaimService(db)
	generateService := services.NewGenerateService(db, profileService)
	competitionService := services.NewCompetitionService(db, generateService, generator)
	matchmakingService := services.NewMatchmakingService(
		db, claimService, profileService, competitionService, notifier, matchConfig,
	)

	profileServiceURL := os.Getenv("PROFILE_SERVICE_URL")
	if profileServiceURL == "" {
		log.Fatal("PROFILE_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("MATCH_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("MATCH_SERVICE_TOKEN environment variable not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncWorker := workers.NewProfileSyncWorker(db, profileServiceURL, "/api/v1/public/profiles", serviceToken)
	syncWorker.Start(ctx)

	matchWorker := workers.NewMatchWorker(arrivalQueue, matchmakingService, utils.EnvIntOr("MATCH_WORKER_COUNT", 4))
	matchWorker.Start(ctx)

	matchmakingService.StartScheduler(ctx)

	handlers.SetupRoomRoutes(app, roomService)

	go func() {
		if err := app.Listen(":" + utils.EnvOr("PORT", "5300")); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Matchmaking service running")
	log.Printf("✅ Match workers: %d, sweep every %s, reaper every %s",
		utils.EnvIntOr("MATCH_WORKER_COUNT", 4), matchConfig.SweepInterval, matchConfig.ReapInterval)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
