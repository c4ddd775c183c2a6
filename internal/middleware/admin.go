package middleware

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"wallet_admin/internal/domain"     // Importing domain models
	"wallet_admin/internal/repository" // Account directory
)

// Context keys set by the auth middlewares
const (
	UserIDKey  = "userID"  // uint account ID from the token
	AccountKey = "account" // *domain.Account loaded from the directory
)

// ActiveAccountMiddleware loads the caller's account on each request and
// refuses suspended accounts
func ActiveAccountMiddleware(accounts repository.AccountDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := loadAccount(c, accounts) // Fetch account from the directory
		if !ok {
			return // Response already written
		}
		// Suspended accounts keep valid tokens until they expire
		if !account.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account suspended"})
			return
		}
		c.Set(AccountKey, account) // Store account in context
		c.Next()                   // Proceed to the next handler
	}
}

// AdminOnlyMiddleware checks the caller's role from the directory on each request
func AdminOnlyMiddleware(accounts repository.AccountDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := loadAccount(c, accounts) // Fetch account from the directory
		if !ok {
			return // Response already written
		}
		// Check if account is an active admin
		if !account.IsAdmin() || !account.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Set(AccountKey, account) // Store account in context
		c.Next()                   // If admin, proceed to the next handler
	}
}

// loadAccount resolves the token's user ID to an account
func loadAccount(c *gin.Context, accounts repository.AccountDirectory) (*domain.Account, bool) {
	userID := c.GetUint(UserIDKey) // Get userID from context
	if userID == 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	account, err := accounts.FindByID(c.Request.Context(), userID)
	if errors.Is(err, domain.ErrNotFound) {
		// Token for a vanished account
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return nil, false
	}
	return account, true
}

// CurrentAccount returns the account stored by the middlewares
func CurrentAccount(c *gin.Context) *domain.Account {
	if v, ok := c.Get(AccountKey); ok {
		if account, ok := v.(*domain.Account); ok {
			return account
		}
	}
	return nil
}
