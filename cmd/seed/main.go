package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/HoVietThang190704/social-app-sub001/internal/config"
	"github.com/HoVietThang190704/social-app-sub001/internal/database"
	"github.com/HoVietThang190704/social-app-sub001/internal/logger"
	"github.com/HoVietThang190704/social-app-sub001/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// The delivery service logs through the global logger
	if err := logger.Initialize("warn", ""); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	db, err := database.Initialize(cfg.DatabaseURL, false)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	seeder := seed.NewSeeder(db)
	ctx := context.Background()

	switch command {
	case "dev":
		userCount := 25
		if len(os.Args) > 2 {
			if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
				userCount = n
			}
		}
		log.Printf("Seeding development database with %d users...", userCount)
		if err := seeder.SeedDev(ctx, userCount); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Println("Seeding complete. All seed accounts use password 'password123'")

	case "clean":
		log.Println("Removing seed data...")
		if err := seeder.Clean(ctx); err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
		log.Println("Done")

	default:
		fmt.Println("Usage: seed [dev [count]|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  clean - Remove all seed data (use with caution)")
		os.Exit(1)
	}
}
