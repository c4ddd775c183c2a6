package repository

import (
	"context" // Request scoped deadlines
	"errors"  // Error matching
	"strings" // Search term normalization
	"time"    // Resolution timestamp

	"github.com/google/uuid"        // Transaction identifiers
	"github.com/shopspring/decimal" // Exact decimal balances
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Row locking

	"wallet_admin/internal/domain" // Importing domain models
)

// Gorm is the MySQL backed Store
type Gorm struct {
	db *gorm.DB // Shared connection pool
}

// NewGorm wraps an open GORM connection
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// Create inserts a new account
func (r *Gorm) Create(ctx context.Context, account *domain.Account) error {
	if account.Role == "" {
		account.Role = domain.RoleUser // Default role
	}
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken // Unique index on email
		}
		return err
	}
	return nil
}

// FindByID loads an account by primary key
func (r *Gorm) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

// FindByEmail loads an account by email
func (r *Gorm) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&account).Error; err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

// Find returns the accounts matching q, newest first
func (r *Gorm) Find(ctx context.Context, q AccountQuery) ([]domain.Account, error) {
	var accounts []domain.Account
	query := r.accountScope(ctx, q).Order("created_at desc").Order("id desc")
	if q.Offset > 0 {
		query = query.Offset(q.Offset) // Skip previous pages
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit) // Page size
	}
	if err := query.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Count returns the size of the filtered set
func (r *Gorm) Count(ctx context.Context, q AccountQuery) (int64, error) {
	var total int64
	if err := r.accountScope(ctx, q).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// UpdateByID applies patch and returns the updated account
func (r *Gorm) UpdateByID(ctx context.Context, id uint, patch AccountPatch) (*domain.Account, error) {
	updates := map[string]any{}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if patch.LastLogin != nil {
		updates["last_login"] = *patch.LastLogin
	}
	if patch.Role != nil {
		updates["role"] = *patch.Role
	}
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return r.FindByID(ctx, id) // Reload to return the stored state
}

// accountScope builds the WHERE clause shared by Find and Count
func (r *Gorm) accountScope(ctx context.Context, q AccountQuery) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&domain.Account{})
	if q.Role != "" {
		query = query.Where("role = ?", q.Role)
	}
	if q.IsActive != nil {
		query = query.Where("is_active = ?", *q.IsActive)
	}
	if term := strings.TrimSpace(q.Search); term != "" && len(q.SearchFields) > 0 {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		var or *gorm.DB // Grouped OR condition
		for _, field := range q.SearchFields {
			if !searchable[field] {
				continue // Never interpolate unknown column names
			}
			cond := "LOWER(" + field + ") LIKE ? ESCAPE '!'"
			if or == nil {
				or = r.db.Where(cond, pattern)
			} else {
				or = or.Or(cond, pattern)
			}
		}
		if or != nil {
			query = query.Where(or)
		}
	}
	return query
}

var searchable = map[string]bool{
	FieldEmail:     true,
	FieldFirstName: true,
	FieldLastName:  true,
	FieldPhone:     true,
	FieldCountry:   true,
}

// escapeLike makes the term a literal substring. '!' is used because MySQL and
// SQLite disagree on the default escape character.
func escapeLike(s string) string {
	return strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`).Replace(s)
}

// CreateTransaction inserts tx and, when hold is set, debits the account atomically
func (r *Gorm) CreateTransaction(ctx context.Context, tx *domain.Transaction, hold bool) (decimal.Decimal, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString() // Assign identifier
	}
	tx.Status = domain.StatusPending
	var balance decimal.Decimal // Balance after the operation
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if hold {
			// Conditional decrement, never a read-then-write
			res := db.Model(&domain.Account{}).
				Where("id = ? AND balance >= ?", tx.AccountID, tx.Amount).
				Update("balance", gorm.Expr("balance - ?", tx.Amount))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				if _, err := accountBalance(db, tx.AccountID); err != nil {
					return err // Missing account
				}
				return domain.ErrInsufficientBalance
			}
		}
		if err := db.Create(tx).Error; err != nil {
			return err // Rollback the hold
		}
		b, err := accountBalance(db, tx.AccountID)
		if err != nil {
			return err
		}
		balance = b
		return nil
	})
	return balance, err
}

// Resolve performs the pending->terminal compare-and-set with its balance effect
func (r *Gorm) Resolve(ctx context.Context, id string, status domain.Status, resolvedBy uint, credit bool) (*domain.Transaction, error) {
	var resolved domain.Transaction
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		now := time.Now()
		res := db.Model(&domain.Transaction{}).
			Where("id = ? AND status = ?", id, domain.StatusPending).
			Updates(map[string]any{"status": status, "resolved_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var existing domain.Transaction
			if err := db.Select("id").First(&existing, "id = ?", id).Error; err != nil {
				return notFound(err)
			}
			return domain.ErrAlreadyResolved // Lost the race or already terminal
		}
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&resolved, "id = ?", id).Error; err != nil {
			return err
		}
		if credit {
			if err := db.Model(&domain.Account{}).Where("id = ?", resolved.AccountID).
				Update("balance", gorm.Expr("balance + ?", resolved.Amount)).Error; err != nil {
				return err
			}
		}
		balance, err := accountBalance(db, resolved.AccountID)
		if err != nil {
			return err
		}
		if resolved.Metadata == nil {
			resolved.Metadata = map[string]any{}
		}
		resolved.Metadata[domain.MetaNewBalance] = balance.String()
		resolved.Metadata[domain.MetaResolvedBy] = resolvedBy
		return db.Model(&resolved).Select("metadata").Updates(&resolved).Error
	})
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

// FindTransaction loads a transaction by id
func (r *Gorm) FindTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &tx, nil
}

// ListTransactions returns a page of transactions plus the filtered total
func (r *Gorm) ListTransactions(ctx context.Context, q TransactionQuery) ([]domain.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Transaction{})
	if q.AccountID != 0 {
		query = query.Where("account_id = ?", q.AccountID) // Filter by owner
	}
	if q.Kind != "" {
		query = query.Where("kind = ?", q.Kind) // Filter by kind
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status) // Filter by status
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var txs []domain.Transaction
	page := query.Order("created_at desc")
	if q.Offset > 0 {
		page = page.Offset(q.Offset)
	}
	if q.Limit > 0 {
		page = page.Limit(q.Limit)
	}
	if err := page.Find(&txs).Error; err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// CreateLinkedWallet stores a linked external wallet
func (r *Gorm) CreateLinkedWallet(ctx context.Context, w *domain.LinkedWallet) error {
	return r.db.WithContext(ctx).Create(w).Error
}

// ListLinkedWallets returns the wallets linked to an account, oldest first
func (r *Gorm) ListLinkedWallets(ctx context.Context, accountID uint) ([]domain.LinkedWallet, error) {
	wallets := []domain.LinkedWallet{} // Empty slice, never null in JSON
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("linked_at asc, id asc").Find(&wallets).Error
	return wallets, err
}

// accountBalance reads the balance inside the current unit of work
func accountBalance(db *gorm.DB, id uint) (decimal.Decimal, error) {
	var account domain.Account
	if err := db.Select("id", "balance").First(&account, id).Error; err != nil {
		return decimal.Zero, notFound(err)
	}
	return account.Balance, nil
}

// notFound maps gorm.ErrRecordNotFound to domain.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

var _ Store = (*Gorm)(nil)
