package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Login timestamp

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"golang.org/x/crypto/bcrypt"   // Password hashing

	"wallet_admin/internal/domain"     // Importing domain models
	"wallet_admin/internal/repository" // Account directory
	"wallet_admin/internal/utils"      // JWT helpers
)

// RegisterRequest is the signup body
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`           // Login email
	Password  string `json:"password" binding:"required,min=8,max=64"` // Plain password
	FirstName string `json:"firstName" binding:"required"`             // Given name
	LastName  string `json:"lastName" binding:"required"`              // Family name
	Phone     string `json:"phone"`                                    // Optional phone
	Country   string `json:"country"`                                  // Optional country
}

// LoginRequest is the login body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Login email
	Password string `json:"password" binding:"required"` // Plain password
}

// AuthResponse carries the issued token
type AuthResponse struct {
	Token string                   `json:"token"` // JWT token
	User  domain.AccountProjection `json:"user"`  // Logged in account
}

// RegisterHandler creates a regular user account
func RegisterHandler(accounts repository.AccountDirectory, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request"})
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost) // Hash the password
		if err != nil {
			respondError(c, err)
			return
		}
		account := &domain.Account{
			Email:     strings.ToLower(strings.TrimSpace(req.Email)), // Normalized email
			Password:  string(hash),                                  // Hashed password
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
			Country:   req.Country,
			Role:      domain.RoleUser, // Signup never grants admin
			IsActive:  true,
		}
		if err := accounts.Create(c.Request.Context(), account); err != nil {
			respondError(c, err) // Duplicate email maps to 409
			return
		}
		invalidateListings(c.Request.Context(), rdb, utils.AdminUsersPrefix) // New row for the user listing
		logrus.WithField("user_id", account.ID).Info("User registered")      // Log registration
		c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User registered successfully", "user": account.Projection()})
	}
}

// LoginHandler authenticates an account and returns a JWT token
func LoginHandler(accounts repository.AccountDirectory, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request"})
			return
		}
		ctx := c.Request.Context()
		account, err := accounts.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
		if errors.Is(err, domain.ErrNotFound) {
			respondError(c, domain.ErrInvalidCredentials) // Do not reveal which part was wrong
			return
		} else if err != nil {
			respondError(c, err)
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
			respondError(c, domain.ErrInvalidCredentials)
			return
		}
		if !account.IsActive {
			respondError(c, domain.ErrAccountSuspended) // Suspended accounts cannot log in
			return
		}
		now := time.Now()
		token, err := utils.GenerateJWT(account, jwtSecret, now) // Generate JWT token
		if err != nil {
			respondError(c, err)
			return
		}
		if _, err := accounts.UpdateByID(ctx, account.ID, repository.AccountPatch{LastLogin: &now}); err != nil {
			logrus.WithError(err).WithField("user_id", account.ID).Warn("Failed to record last login")
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: account.Projection()})
	}
}
