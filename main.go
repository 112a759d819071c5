package main

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"connect4-server/broadcast"
	"connect4-server/config"
	"connect4-server/handlers"
	"connect4-server/middleware"
	"connect4-server/models"
	"connect4-server/services"
	"connect4-server/utils"
	"connect4-server/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	db, err := utils.OpenDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := broadcast.NewHub()
	userService := services.NewUserService(db)
	gameService := services.NewGameService(db, userService, cfg.GameTimeout)
	gameService.Events = hub
	matchmakingService := services.NewMatchmakingService(db, gameService, cfg.TicketTTL)

	if cfg.Archive.Bucket != "" {
		archiver, err := utils.NewS3Archiver(ctx, cfg.Archive)
		if err != nil {
			log.Fatalf("failed to initialize game archive: %v", err)
		}
		gameService.Archive = archiver
		log.Infof("Archiving finished games to bucket %s", cfg.Archive.Bucket)
	}

	sweeper, err := workers.NewSweeper(gameService, matchmakingService)
	if err != nil {
		log.Fatal(err)
	}
	if err := sweeper.Start(ctx, cfg.SweepInterval); err != nil {
		log.Fatal(err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "connect4-server",
		ErrorHandler: middleware.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, Cache-Control",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: !slices.Contains(cfg.AllowedOrigins, "*"),
		MaxAge:           86400,
	}))

	handlers.SetupRoutes(app, cfg, handlers.Services{
		Users:       userService,
		Games:       gameService,
		Matchmaking: matchmakingService,
		Hub:         hub,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorf("Server error: %v", err)
		}
	}()

	log.Infof("Server running on http://localhost:%s%s", cfg.Port, handlers.APIRoot)
	log.Infof("Game timeout %s, ticket lease %s, sweep every %s", cfg.GameTimeout, cfg.TicketTTL, cfg.SweepInterval)
	log.Infof("CORS configured for origins: %s", strings.Join(cfg.AllowedOrigins, ","))

	<-ctx.Done()
	log.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}
