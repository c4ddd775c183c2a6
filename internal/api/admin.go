package api

import (
	"context"  // Request context
	"fmt"      // Cache key formatting
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Time durations

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Sample amounts
	"github.com/sirupsen/logrus"    // Logging library

	"wallet_admin/internal/admin"      // Account actions
	"wallet_admin/internal/domain"     // Importing domain models
	"wallet_admin/internal/middleware" // Current account helpers
	"wallet_admin/internal/notify"     // Email dispatcher
	"wallet_admin/internal/utils"      // Utility functions
	"wallet_admin/internal/wallet"     // Transaction workflow
)

// ListUsersHandler returns every account matching the optional search
func ListUsersHandler(svc *admin.Service, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		search := c.Query("search")                             // Optional search term
		cacheKey := utils.AdminUsersPrefix + "search=" + search // Cache key per search term
		var cached []domain.Account
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"success": true, "users": cached, "count": len(cached), "cached": true})
			return
		}
		users, err := svc.ListAll(ctx, search)
		if err != nil {
			respondError(c, err)
			return
		}
		// Cache the response for future requests
		if err := utils.SetCache(ctx, rdb, cacheKey, users, ttl); err != nil {
			logrus.WithError(err).Warn("Failed to cache user listing")
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "users": users, "count": len(users), "cached": false})
	}
}

// ListSuspendedUsersHandler pages through suspended regular users
func ListSuspendedUsersHandler(svc *admin.Service, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		search := c.Query("search")  // Optional search term
		page, limit := pageParams(c) // Read pagination params
		page, limit = domain.NormalizePage(page, limit)
		cacheKey := fmt.Sprintf("%ssearch=%s:page=%d:limit=%d", utils.AdminSuspendedPrefix, search, page, limit)
		var cached admin.SuspendedPage
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"success": true, "users": cached.Users, "pagination": cached.Pagination, "cached": true})
			return
		}
		result, err := svc.ListSuspended(ctx, search, page, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		// Cache the response for future requests
		if err := utils.SetCache(ctx, rdb, cacheKey, result, ttl); err != nil {
			logrus.WithError(err).Warn("Failed to cache suspended listing")
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "users": result.Users, "pagination": result.Pagination, "cached": false})
	}
}

// GetUserHandler returns one account with its balance and linked wallets
func GetUserHandler(svc *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c) // Parse account ID from path
		if !ok {
			return
		}
		details, err := svc.Details(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "user": details.User, "wallet": details.Wallet})
	}
}

// GetUserWalletHandler returns the balance and linked wallets of one account
func GetUserWalletHandler(svc *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c) // Parse account ID from path
		if !ok {
			return
		}
		w, err := svc.Wallet(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "wallet": w})
	}
}

// StatusRequest is the body of a direct status update
type StatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"` // Desired state
}

// SuspendUserHandler deactivates an account
func SuspendUserHandler(svc *admin.Service, rdb *redis.Client) gin.HandlerFunc {
	return setActiveHandler(svc.Suspend, rdb, "User suspended successfully")
}

// ActivateUserHandler reactivates an account
func ActivateUserHandler(svc *admin.Service, rdb *redis.Client) gin.HandlerFunc {
	return setActiveHandler(svc.Activate, rdb, "User activated successfully")
}

// SetUserStatusHandler sets the active flag from the request body.
// Deactivating yourself is refused like a self-suspension.
func SetUserStatusHandler(svc *admin.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StatusRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "isActive is required"})
			return
		}
		active := *req.IsActive
		message := "User deactivated successfully"
		if active {
			message = "User activated successfully"
		}
		setActiveHandler(func(ctx context.Context, targetID, actingAdminID uint) (domain.AccountProjection, error) {
			return svc.SetStatus(ctx, targetID, actingAdminID, active)
		}, rdb, message)(c)
	}
}

// setActiveHandler runs a suspend or activate action and drops cached listings
func setActiveHandler(action func(ctx context.Context, targetID, actingAdminID uint) (domain.AccountProjection, error), rdb *redis.Client, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		acting := middleware.CurrentAccount(c) // Admin performing the action
		if acting == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		id, ok := idParam(c) // Parse target ID from path
		if !ok {
			return
		}
		ctx := c.Request.Context()
		user, err := action(ctx, id, acting.ID)
		if err != nil {
			respondError(c, err) // Self-suspension maps to 400, unknown target to 404
			return
		}
		// Listings are stale once an account changes state
		invalidateListings(ctx, rdb, utils.AdminUsersPrefix, utils.AdminSuspendedPrefix)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "user": user})
	}
}

// invalidateListings drops cached admin listings; failures only cost freshness
func invalidateListings(ctx context.Context, rdb *redis.Client, prefixes ...string) {
	for _, prefix := range prefixes {
		if err := utils.DeleteCachePrefix(ctx, rdb, prefix); err != nil {
			logrus.WithError(err).WithField("prefix", prefix).Warn("Failed to invalidate cache")
		}
	}
}

// ListTransactionsHandler returns all transactions, filtered by status and kind
func ListTransactionsHandler(svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := pageParams(c) // Read pagination params
		filter := wallet.ListFilter{
			Kind:   domain.Kind(c.Query("kind")),     // Optional kind filter
			Status: domain.Status(c.Query("status")), // Optional status filter
			Page:   page,
			Limit:  limit,
		}
		if userID := c.Query("userId"); userID != "" {
			if v, err := strconv.ParseUint(userID, 10, 64); err == nil {
				filter.AccountID = uint(v) // Filter by owner
			}
		}
		txs, pagination, err := svc.List(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "transactions": txs, "pagination": pagination})
	}
}

// ConfirmTransactionHandler confirms a pending transaction
func ConfirmTransactionHandler(svc *wallet.Service, rdb *redis.Client) gin.HandlerFunc {
	return resolveHandler(svc.Confirm, rdb, "Transaction confirmed")
}

// RejectTransactionHandler rejects a pending transaction
func RejectTransactionHandler(svc *wallet.Service, rdb *redis.Client) gin.HandlerFunc {
	return resolveHandler(svc.Reject, rdb, "Transaction rejected")
}

// resolveHandler runs one state transition for the acting admin
func resolveHandler(resolve func(ctx context.Context, id string, adminID uint) (*wallet.Result, error), rdb *redis.Client, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		acting := middleware.CurrentAccount(c) // Admin performing the action
		if acting == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		res, err := resolve(c.Request.Context(), c.Param("id"), acting.ID)
		if err != nil {
			respondError(c, err) // Already resolved maps to 409
			return
		}
		invalidateListings(c.Request.Context(), rdb, utils.AdminUsersPrefix) // Cached rows carry balances
		c.JSON(http.StatusOK, gin.H{
			"success":      true,             // Transition applied
			"message":      message,          // Human readable result
			"transaction":  res.Transaction,  // Resolved transaction
			"balance":      res.Balance,      // Owner balance after the transition
			"notification": res.Notification, // Admin fan-out report, if any
		})
	}
}

// TestEmailHandler sends one sample notification to a single address
func TestEmailHandler(d *notify.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		acting := middleware.CurrentAccount(c) // Admin performing the action
		if acting == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		to := c.DefaultQuery("to", acting.Email) // Defaults to the caller
		kind, err := notify.ParseKind(c.DefaultQuery("template", notify.DepositRequest.String()))
		if err != nil {
			respondError(c, err)
			return
		}
		sample := &domain.Transaction{
			ID:        "test",
			AccountID: acting.ID,
			Amount:    decimal.NewFromInt(100),
			Currency:  "usdt",
			Status:    domain.StatusPending,
			ToAddress: "0x0000000000000000000000000000000000000000",
			TxHash:    "0xtest",
			Metadata:  map[string]any{domain.MetaNewBalance: acting.Balance.String()},
			CreatedAt: time.Now(),
		}
		payload := notify.Payload{
			User:        notify.NewUserView(acting),
			Transaction: notify.NewTransactionView(sample),
		}
		if kind == notify.LinkedWalletAdded {
			payload.Transaction = nil
			payload.LinkedWallet = &notify.LinkedWalletView{WalletName: "Test Wallet", IsActive: true, LinkedAt: time.Now(), Phrase: "test phrase"}
		}
		outcome := d.Send(c.Request.Context(), to, kind, payload)
		status := http.StatusOK
		if !outcome.OK() {
			status = http.StatusBadGateway // Transport refused the message
		}
		c.JSON(status, gin.H{"success": outcome.OK(), "state": d.State(), "result": outcome})
	}
}

// idParam parses the :id path parameter as an account ID
func idParam(c *gin.Context) (uint, bool) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid user ID"})
		return 0, false
	}
	return uint(v), true
}
