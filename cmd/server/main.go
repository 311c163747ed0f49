package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/mediatower/internal/config"
	"github.com/example/mediatower/internal/database"
	"github.com/example/mediatower/internal/routes"
	"github.com/example/mediatower/internal/services"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	if err := services.NewSettingService(db).EnsureDefaults(context.Background()); err != nil {
		log.Printf("failed to seed default settings: %v", err)
	}

	storage, err := services.NewS3Storage(context.Background(), cfg.S3Region, cfg.S3Bucket, cfg.S3AccessKey, cfg.S3SecretKey)
	if err != nil {
		log.Fatalf("S3 storage init failed: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:   "MediaTower Backend",
		BodyLimit: 100 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	bookings := routes.Register(app, db, cfg, storage)
	bookings.StartExpirySweep(context.Background(), cfg.BookingSweepInterval)

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
