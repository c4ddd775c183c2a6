// Package repository stores accounts, transactions and linked wallets.
//
// Two implementations exist: Gorm for MySQL and Memory for tests and local
// runs. Balance changes are only ever applied as single atomic increments or
// decrements coupled to a transaction status change.
package repository

import (
	"context" // Request scoped deadlines
	"time"    // Login timestamps

	"github.com/shopspring/decimal" // Exact decimal balances

	"wallet_admin/internal/domain" // Importing domain models
)

// Search field names accepted by AccountQuery.SearchFields
const (
	FieldEmail     = "email"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldPhone     = "phone"
	FieldCountry   = "country"
)

// AccountQuery filters accounts. Zero values mean "no constraint".
type AccountQuery struct {
	Role         domain.Role
	IsActive     *bool
	Search       string   // case-insensitive substring
	SearchFields []string // fields Search is matched against
	Offset       int
	Limit        int // 0 = unlimited
}

// AccountPatch lists the mutable account fields. Nil fields are untouched.
type AccountPatch struct {
	IsActive  *bool
	LastLogin *time.Time
	Role      *domain.Role
}

// AccountDirectory is the account store used by the account actions, the
// notifier and the auth layer.
type AccountDirectory interface {
	Create(ctx context.Context, account *domain.Account) error
	FindByID(ctx context.Context, id uint) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// Find returns matches newest first.
	Find(ctx context.Context, q AccountQuery) ([]domain.Account, error)
	// Count ignores Offset and Limit.
	Count(ctx context.Context, q AccountQuery) (int64, error)
	UpdateByID(ctx context.Context, id uint, patch AccountPatch) (*domain.Account, error)
}

// TransactionQuery filters transactions
type TransactionQuery struct {
	AccountID uint
	Kind      domain.Kind
	Status    domain.Status
	Offset    int
	Limit     int
}

// TransactionLedger persists transactions together with their balance effects.
type TransactionLedger interface {
	// CreateTransaction inserts tx. When hold is set the owning account is
	// debited by tx.Amount in the same atomic unit, failing with
	// domain.ErrInsufficientBalance when the balance is lower than the amount.
	// The returned value is the account balance after the operation.
	CreateTransaction(ctx context.Context, tx *domain.Transaction, hold bool) (decimal.Decimal, error)
	// Resolve moves a pending transaction to status with a compare-and-set.
	// When credit is set the amount is added to the owning account in the same
	// atomic unit. metadata.newBalance is written with the resulting balance.
	// Losers of the race get domain.ErrAlreadyResolved and change nothing.
	Resolve(ctx context.Context, id string, status domain.Status, resolvedBy uint, credit bool) (*domain.Transaction, error)
	FindTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, q TransactionQuery) ([]domain.Transaction, int64, error)
}

// LinkedWalletStore persists external wallets linked by users
type LinkedWalletStore interface {
	CreateLinkedWallet(ctx context.Context, w *domain.LinkedWallet) error
	// ListLinkedWallets never returns nil for an account without wallets.
	ListLinkedWallets(ctx context.Context, accountID uint) ([]domain.LinkedWallet, error)
}

// Store bundles every repository the server needs
type Store interface {
	AccountDirectory
	TransactionLedger
	LinkedWalletStore
}

// Bool returns a pointer to b, for AccountQuery and AccountPatch literals
func Bool(b bool) *bool { return &b }
