package db

import (
	"context" // Context for seeding
	"errors"  // Error matching
	"strings" // String manipulation

	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library

	"wallet_admin/internal/domain"     // Importing domain models
	"wallet_admin/internal/repository" // Account directory
)

// Open connects to MySQL with driver errors translated to gorm errors
func Open(dsn string) (*gorm.DB, error) {
	// TranslateError turns duplicate key violations into gorm.ErrDuplicatedKey
	return gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(&domain.Account{}, &domain.Transaction{}, &domain.LinkedWallet{}); err != nil {
		return err
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}

// SeedAdmin creates an admin account, or promotes an existing account with
// that email, so the fan-out has at least one recipient
func SeedAdmin(ctx context.Context, accounts repository.AccountDirectory, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := accounts.FindByEmail(ctx, email)
	if err == nil {
		role := domain.RoleAdmin
		_, err = accounts.UpdateByID(ctx, existing.ID, repository.AccountPatch{Role: &role, IsActive: repository.Bool(true)})
		if err == nil {
			logrus.WithField("email", email).Info("Existing account promoted to admin")
		}
		return err
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost) // Hash the password
	if err != nil {
		return err
	}
	if err := accounts.Create(ctx, &domain.Account{
		Email:    email,
		Password: string(hash),
		Role:     domain.RoleAdmin,
		IsActive: true,
	}); err != nil {
		return err
	}
	logrus.WithField("email", email).Info("Admin account seeded")
	return nil
}
