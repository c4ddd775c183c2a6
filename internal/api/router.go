package api

import (
	"time" // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client

	"wallet_admin/internal/admin"      // Account actions
	"wallet_admin/internal/middleware" // Custom package for middleware
	"wallet_admin/internal/notify"     // Email dispatcher
	"wallet_admin/internal/repository" // Persistence
	"wallet_admin/internal/wallet"     // Transaction workflow
)

// Deps are the collaborators the HTTP layer is built from
type Deps struct {
	Accounts   repository.AccountDirectory // Account lookups for auth
	Wallet     *wallet.Service             // Transaction workflow
	Admin      *admin.Service              // Account actions
	Dispatcher *notify.Dispatcher          // Test email endpoint
	Redis      *redis.Client               // Listing cache, nil disables it
	CacheTTL   time.Duration               // Listing cache TTL
	JWTSecret  string                      // Token signing secret
	IsProd     bool                        // Reported by the health check
}

// RegisterRoutes mounts every route on r
func RegisterRoutes(r *gin.Engine, d Deps) {
	environment := "development"
	if d.IsProd {
		environment = "production"
	}
	r.GET("/", HealthHandler(environment)) // Health check
	r.NoRoute(NotFoundHandler())           // JSON 404

	// Auth routes
	r.POST("/auth/register", RegisterHandler(d.Accounts, d.Redis)) // Registration endpoint
	r.POST("/auth/login", LoginHandler(d.Accounts, d.JWTSecret))   // Login endpoint

	// Wallet routes (protected by JWT, active accounts only)
	walletGroup := r.Group("/wallet")
	walletGroup.Use(middleware.JWTAuthMiddleware(d.JWTSecret), middleware.ActiveAccountMiddleware(d.Accounts))
	walletGroup.GET("", GetBalanceHandler(d.Wallet))                             // Balance endpoint
	walletGroup.POST("/deposits", CreateDepositHandler(d.Wallet))                // Deposit request endpoint
	walletGroup.POST("/withdrawals", CreateWithdrawalHandler(d.Wallet, d.Redis)) // Withdrawal request endpoint
	walletGroup.GET("/transactions", GetTransactionHistoryHandler(d.Wallet))     // Transaction history endpoint
	walletGroup.POST("/linked", LinkWalletHandler(d.Wallet))                     // Link external wallet endpoint

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.JWTAuthMiddleware(d.JWTSecret), middleware.AdminOnlyMiddleware(d.Accounts))
	adminGroup.GET("/users", ListUsersHandler(d.Admin, d.Redis, d.CacheTTL))                    // List users endpoint
	adminGroup.GET("/users/suspended", ListSuspendedUsersHandler(d.Admin, d.Redis, d.CacheTTL)) // Suspended users endpoint
	adminGroup.GET("/users/:id", GetUserHandler(d.Admin))                                       // User details endpoint
	adminGroup.GET("/users/:id/wallet", GetUserWalletHandler(d.Admin))                          // User wallet endpoint
	adminGroup.PUT("/users/:id/status", SetUserStatusHandler(d.Admin, d.Redis))                 // Direct status endpoint
	adminGroup.PUT("/users/:id/suspend", SuspendUserHandler(d.Admin, d.Redis))                  // Suspend endpoint
	adminGroup.PUT("/users/:id/activate", ActivateUserHandler(d.Admin, d.Redis))                // Activate endpoint
	adminGroup.GET("/transactions", ListTransactionsHandler(d.Wallet))                          // List transactions endpoint
	adminGroup.POST("/transactions/:id/confirm", ConfirmTransactionHandler(d.Wallet, d.Redis))  // Confirm endpoint
	adminGroup.POST("/transactions/:id/reject", RejectTransactionHandler(d.Wallet, d.Redis))    // Reject endpoint
	adminGroup.POST("/notifications/test", TestEmailHandler(d.Dispatcher))                      // Test email endpoint
}
