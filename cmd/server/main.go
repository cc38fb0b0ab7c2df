package main

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/servicehand/internal/config"
	"github.com/example/servicehand/internal/database"
	"github.com/example/servicehand/internal/handlers"
	"github.com/example/servicehand/internal/routes"
	"github.com/example/servicehand/internal/services"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	deps := routes.Dependencies{
		Sessions: services.StatelessSessionStore{},
		Mailer:   services.LogMailer{},
	}

	if cfg.RedisAddr != "" {
		client, err := services.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer client.Close()
		deps.Sessions = services.NewRedisSessionStore(client)
		log.Printf("[Session] Using Redis session registry at %s", cfg.RedisAddr)
	} else {
		log.Println("[Session] REDIS_ADDR not set, logout only clears the cookie")
	}

	if cfg.MailEnabled() {
		deps.Mailer = services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	}

	if cfg.TelegramBotToken != "" {
		deps.Notifier = services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	}

	app := fiber.New(fiber.Config{
		AppName:      "ServiceHand Backend",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	origin := strings.TrimRight(cfg.PublicBaseURL, "/")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origin,
		AllowCredentials: origin != "",
	}))

	routes.Register(app, db, cfg, deps)

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
