package main

import (
	"fmt"
	"log"
	"os"

	"github.com/HoVietThang190704/social-app-sub001/internal/config"
	"github.com/HoVietThang190704/social-app-sub001/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		runMigrationsUp(cfg)
	default:
		fmt.Println("Usage: migrate [up]")
		fmt.Println("  up - Run all pending migrations")
		os.Exit(1)
	}
}

func runMigrationsUp(cfg *config.Config) {
	log.Println("Connecting to database...")

	if _, err := database.Initialize(cfg.DatabaseURL, false); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	log.Println("Running migrations...")
	if err := database.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations complete")
}
