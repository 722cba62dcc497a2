package main

import (
	"fmt"
	"os"

	"github.com/HoVietThang190704/social-app-sub001/internal/config"
	"github.com/HoVietThang190704/social-app-sub001/internal/database"
	"github.com/HoVietThang190704/social-app-sub001/internal/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "social-app",
	Short: "Operations CLI for the notification service",
	Long: `Command-line access to the notification service database.
Send or broadcast notifications and manage account roles without going
through the HTTP API.`,
}

// openDatabase connects using the same configuration as the server
func openDatabase() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// The notification service logs through the global logger
	if err := logger.Initialize("warn", ""); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Initialize(cfg.DatabaseURL, false)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(promoteAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
