package main

import (
	"context" // Context for seeding
	"os"      // Seed credentials

	"github.com/sirupsen/logrus" // Logging library

	"wallet_admin/internal/config"     // Custom import path (Config)
	"wallet_admin/internal/db"         // Custom import path (Database)
	"wallet_admin/internal/repository" // Account directory
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration

	gdb, err := db.Open(cfg.DSN()) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}

	// Optional first admin
	email, password := os.Getenv("SEED_ADMIN_EMAIL"), os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}
	if err := db.SeedAdmin(context.Background(), repository.NewGorm(gdb), email, password); err != nil {
		logrus.Fatalf("admin seed failed: %v", err)
	}
}
