package main

import (
	"context"
	"log"

	"github.com/example/servicehand/internal/config"
	"github.com/example/servicehand/internal/database"
	"github.com/example/servicehand/internal/services"
)

func main() {
	cfg := config.Load()
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}

	db := database.Connect(cfg.DatabaseURL)
	accounts := services.NewAccountService(db, services.NewCredentialStore(cfg.BcryptCost))

	admin, created, err := accounts.EnsureAdmin(context.Background(), cfg.AdminName, cfg.AdminPhone, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	if created {
		log.Printf("Created admin %s (%s)", admin.EmailValue(), admin.ID)
		return
	}
	log.Printf("Admin %s already exists", admin.EmailValue())
}
