package repository

import (
	"context" // Interface parity with Gorm
	"sort"    // Newest-first ordering
	"strings" // Case-insensitive matching
	"sync"    // State guard
	"time"    // Timestamps

	"github.com/google/uuid"        // Transaction identifiers
	"github.com/shopspring/decimal" // Exact decimal balances

	"wallet_admin/internal/domain" // Importing domain models
)

// Memory is an in-process Store. A single mutex guards all state and is never
// held across anything but map access.
type Memory struct {
	mu       sync.Mutex                     // Guards every field below
	nextID   uint                           // Last assigned account ID
	accounts map[uint]*domain.Account       // Accounts by ID
	txs      map[string]*domain.Transaction // Transactions by ID
	wallets  []domain.LinkedWallet          // Linked wallets in insertion order
	now      func() time.Time               // Clock
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[uint]*domain.Account),
		txs:      make(map[string]*domain.Transaction),
		now:      time.Now,
	}
}

// Create inserts a new account, rejecting duplicate emails
func (m *Memory) Create(ctx context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, account.Email) {
			return domain.ErrEmailTaken // Unique email
		}
	}
	m.nextID++
	account.ID = m.nextID
	if account.Role == "" {
		account.Role = domain.RoleUser
	}
	if account.CreatedAt.IsZero() {
		// Monotonic offsets keep newest-first ordering stable for back-to-back inserts.
		account.CreatedAt = m.now().Add(time.Duration(m.nextID) * time.Microsecond)
	}
	account.UpdatedAt = account.CreatedAt
	cp := *account
	m.accounts[cp.ID] = &cp
	return nil
}

// FindByID loads an account by primary key
func (m *Memory) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// FindByEmail loads an account by email, case-insensitively
func (m *Memory) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Find returns matching accounts newest first
func (m *Memory) Find(ctx context.Context, q AccountQuery) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matches := m.match(q)
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID > matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return window(matches, q.Offset, q.Limit), nil
}

// Count returns the size of the filtered set
func (m *Memory) Count(ctx context.Context, q AccountQuery) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return int64(len(m.match(q))), nil
}

// UpdateByID applies the non-nil patch fields
func (m *Memory) UpdateByID(ctx context.Context, id uint, patch AccountPatch) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.IsActive != nil {
		a.IsActive = *patch.IsActive
	}
	if patch.LastLogin != nil {
		t := *patch.LastLogin
		a.LastLogin = &t
	}
	if patch.Role != nil {
		a.Role = *patch.Role
	}
	a.UpdatedAt = m.now()
	cp := *a
	return &cp, nil
}

// match returns every account passing the filters, unordered
func (m *Memory) match(q AccountQuery) []domain.Account {
	term := strings.ToLower(q.Search)
	var out []domain.Account
	for _, a := range m.accounts {
		if q.Role != "" && a.Role != q.Role {
			continue
		}
		if q.IsActive != nil && a.IsActive != *q.IsActive {
			continue
		}
		if term != "" && !searchMatches(a, term, q.SearchFields) {
			continue
		}
		out = append(out, *a)
	}
	return out
}

// searchMatches reports whether any of fields contains term
func searchMatches(a *domain.Account, term string, fields []string) bool {
	for _, f := range fields {
		var v string
		switch f {
		case FieldEmail:
			v = a.Email
		case FieldFirstName:
			v = a.FirstName
		case FieldLastName:
			v = a.LastName
		case FieldPhone:
			v = a.Phone
		case FieldCountry:
			v = a.Country
		}
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

// window slices one page out of items
func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	if offset > 0 {
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// CreateTransaction inserts tx and, when hold is set, debits the account
func (m *Memory) CreateTransaction(ctx context.Context, tx *domain.Transaction, hold bool) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[tx.AccountID]
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	if hold {
		// Checked and debited under the same lock
		if a.Balance.LessThan(tx.Amount) {
			return a.Balance, domain.ErrInsufficientBalance
		}
		a.Balance = a.Balance.Sub(tx.Amount)
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = m.now()
	}
	tx.Status = domain.StatusPending
	m.txs[tx.ID] = cloneTx(tx)
	return a.Balance, nil
}

// Resolve performs the pending->terminal compare-and-set with its balance effect
func (m *Memory) Resolve(ctx context.Context, id string, status domain.Status, resolvedBy uint, credit bool) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.txs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if tx.Status != domain.StatusPending {
		return nil, domain.ErrAlreadyResolved // Lost the race or already terminal
	}
	a, ok := m.accounts[tx.AccountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if credit {
		a.Balance = a.Balance.Add(tx.Amount)
	}
	now := m.now()
	tx.Status = status
	tx.ResolvedAt = &now
	if tx.Metadata == nil {
		tx.Metadata = map[string]any{}
	}
	tx.Metadata[domain.MetaNewBalance] = a.Balance.String()
	tx.Metadata[domain.MetaResolvedBy] = resolvedBy
	return cloneTx(tx), nil
}

// FindTransaction loads a transaction by id
func (m *Memory) FindTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.txs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneTx(tx), nil
}

// ListTransactions returns a page of transactions plus the filtered total
func (m *Memory) ListTransactions(ctx context.Context, q TransactionQuery) ([]domain.Transaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Transaction
	for _, tx := range m.txs {
		if q.AccountID != 0 && tx.AccountID != q.AccountID {
			continue
		}
		if q.Kind != "" && tx.Kind != q.Kind {
			continue
		}
		if q.Status != "" && tx.Status != q.Status {
			continue
		}
		out = append(out, *cloneTx(tx))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return window(out, q.Offset, q.Limit), int64(len(out)), nil
}

// CreateLinkedWallet stores a linked external wallet
func (m *Memory) CreateLinkedWallet(ctx context.Context, w *domain.LinkedWallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[w.AccountID]; !ok {
		return domain.ErrNotFound
	}
	w.ID = uint(len(m.wallets) + 1)
	if w.LinkedAt.IsZero() {
		w.LinkedAt = m.now()
	}
	m.wallets = append(m.wallets, *w)
	return nil
}

// ListLinkedWallets returns the wallets linked to an account, oldest first
func (m *Memory) ListLinkedWallets(ctx context.Context, accountID uint) ([]domain.LinkedWallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []domain.LinkedWallet{}
	for _, w := range m.wallets {
		if w.AccountID == accountID {
			out = append(out, w)
		}
	}
	return out, nil
}

// cloneTx copies tx so callers never share the metadata map
func cloneTx(tx *domain.Transaction) *domain.Transaction {
	cp := *tx
	if tx.Metadata != nil {
		cp.Metadata = make(map[string]any, len(tx.Metadata))
		for k, v := range tx.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

var _ Store = (*Memory)(nil)
