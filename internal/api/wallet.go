package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact decimal amounts

	"wallet_admin/internal/domain"     // Importing domain models
	"wallet_admin/internal/middleware" // Current account helpers
	"wallet_admin/internal/utils"      // Cache helpers
	"wallet_admin/internal/wallet"     // Transaction workflow
)

// TransactionRequest is the body of a deposit or withdrawal request
type TransactionRequest struct {
	Amount    decimal.Decimal `json:"amount"`                      // Requested amount, must be positive
	Currency  string          `json:"currency" binding:"required"` // Currency code
	ToAddress string          `json:"toAddress"`                   // Destination, withdrawals only
	TxHash    string          `json:"txHash"`                      // On-chain hash, deposits only
}

// LinkWalletRequest is the body of a wallet link request
type LinkWalletRequest struct {
	WalletName string `json:"walletName" binding:"required"` // Display name
	WalletType string `json:"walletType"`                    // Optional type
	Phrase     string `json:"phrase" binding:"required"`     // Recovery phrase
}

// CreateDepositHandler records a pending deposit for the caller
func CreateDepositHandler(svc *wallet.Service) gin.HandlerFunc {
	return createTransactionHandler(svc, nil, domain.KindDeposit)
}

// CreateWithdrawalHandler records a pending withdrawal and holds its amount.
// The hold changes the balance, so cached user listings are dropped.
func CreateWithdrawalHandler(svc *wallet.Service, rdb *redis.Client) gin.HandlerFunc {
	return createTransactionHandler(svc, rdb, domain.KindWithdrawal)
}

func createTransactionHandler(svc *wallet.Service, rdb *redis.Client, kind domain.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := middleware.CurrentAccount(c) // Get account from context
		if account == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		var req TransactionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request"})
			return
		}
		if kind == domain.KindWithdrawal && req.ToAddress == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "toAddress is required"})
			return
		}
		res, err := svc.Create(c.Request.Context(), wallet.CreateRequest{
			Kind:      kind,
			AccountID: account.ID,
			Amount:    req.Amount,
			Currency:  req.Currency,
			ToAddress: req.ToAddress,
			TxHash:    req.TxHash,
		})
		if err != nil {
			respondError(c, err) // Validation and balance errors map to 400
			return
		}
		if kind == domain.KindWithdrawal {
			invalidateListings(c.Request.Context(), rdb, utils.AdminUsersPrefix)
		}
		c.JSON(http.StatusCreated, gin.H{
			"success":      true,             // Request recorded
			"transaction":  res.Transaction,  // Pending transaction
			"balance":      res.Balance,      // Balance after any hold
			"notification": res.Notification, // Admin fan-out report
		})
	}
}

// GetBalanceHandler returns the caller's balance
func GetBalanceHandler(svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := middleware.CurrentAccount(c) // Get account from context
		if account == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		balance, err := svc.Balance(c.Request.Context(), account.ID) // Fresh read, not the middleware copy
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "balance": balance})
	}
}

// GetTransactionHistoryHandler returns the caller's own transactions, newest first
func GetTransactionHistoryHandler(svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := middleware.CurrentAccount(c) // Get account from context
		if account == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		page, limit := pageParams(c) // Read pagination params
		txs, pagination, err := svc.List(c.Request.Context(), wallet.ListFilter{
			AccountID: account.ID,
			Kind:      domain.Kind(c.Query("kind")),
			Status:    domain.Status(c.Query("status")),
			Page:      page,
			Limit:     limit,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "transactions": txs, "pagination": pagination})
	}
}

// LinkWalletHandler attaches an external wallet to the caller's account
func LinkWalletHandler(svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := middleware.CurrentAccount(c) // Get account from context
		if account == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		var req LinkWalletRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request"})
			return
		}
		w, report, err := svc.LinkWallet(c.Request.Context(), wallet.LinkWalletRequest{
			AccountID:  account.ID,
			WalletName: req.WalletName,
			WalletType: req.WalletType,
			Phrase:     req.Phrase,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "wallet": w, "notification": report})
	}
}

// pageParams reads page and limit; invalid values fall back to defaults
func pageParams(c *gin.Context) (int, int) {
	page, limit := domain.DefaultPage, domain.DefaultLimit // Defaults
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v // Clamped later by the service
		}
	}
	return page, limit
}
