// Package wallet owns the deposit/withdrawal review workflow: creation,
// admin confirmation or rejection, the balance effects of each transition and
// the admin notifications they trigger.
//
// Balance rules:
//   - a withdrawal debits the balance when it is requested (the hold);
//   - confirming a deposit credits the amount;
//   - rejecting a withdrawal credits the held amount back;
//   - every other transition leaves the balance untouched.
//
// Notifications and events are best-effort. Their failures are logged and
// reported alongside the result but never fail or roll back a transition.
package wallet

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet_admin/internal/domain"
	"wallet_admin/internal/events"
	"wallet_admin/internal/notify"
	"wallet_admin/internal/repository"
)

// Notifier fans a notification out to administrators.
type Notifier interface {
	NotifyAdmins(ctx context.Context, kind notify.Kind, p notify.Payload) notify.Report
}

// Options tune optional behaviour.
type Options struct {
	// NotifyOnReject sends transactionRejected to admins on Reject.
	NotifyOnReject bool
}

// Service is the transaction state machine.
type Service struct {
	store    repository.Store
	notifier Notifier
	events   events.Publisher
	log      logrus.FieldLogger
	opts     Options
}

// NewService wires the state machine. A nil publisher disables events.
func NewService(store repository.Store, notifier Notifier, publisher events.Publisher, log logrus.FieldLogger, opts Options) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{store: store, notifier: notifier, events: publisher, log: log, opts: opts}
}

// CreateRequest is a user-initiated deposit or withdrawal.
type CreateRequest struct {
	Kind      domain.Kind
	AccountID uint
	Amount    decimal.Decimal
	Currency  string
	ToAddress string // withdrawals
	TxHash    string // deposits
}

// Result is the outcome of a transition. Notification is auxiliary and never
// reflects on whether the transition itself succeeded.
type Result struct {
	Transaction  *domain.Transaction `json:"transaction"`
	Balance      decimal.Decimal     `json:"balance"`
	Notification *notify.Report      `json:"notification,omitempty"`
}

// Create records a pending transaction. Withdrawals debit the balance
// atomically with the insert.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Result, error) {
	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidKind, req.Kind)
	}
	account, err := s.store.FindByID(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		AccountID: req.AccountID,
		Kind:      req.Kind,
		Amount:    req.Amount,
		Currency:  strings.ToLower(strings.TrimSpace(req.Currency)),
		Status:    domain.StatusPending,
	}
	if req.Kind == domain.KindWithdrawal {
		tx.ToAddress = req.ToAddress
	} else {
		tx.TxHash = req.TxHash
	}

	hold := req.Kind == domain.KindWithdrawal
	balance, err := s.store.CreateTransaction(ctx, tx, hold)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"transaction_id": tx.ID,
		"account_id":     tx.AccountID,
		"kind":           tx.Kind,
		"amount":         tx.Amount.String(),
		"balance":        balance.String(),
	}).Info("Transaction requested")

	s.publish(ctx, events.TransactionCreated, tx)

	kind := notify.DepositRequest
	if tx.Kind == domain.KindWithdrawal {
		kind = notify.WithdrawalRequest
	}
	report := s.notify(ctx, kind, account, tx)
	return &Result{Transaction: tx, Balance: balance, Notification: report}, nil
}

// Confirm resolves a pending transaction as confirmed. Deposits are credited.
func (s *Service) Confirm(ctx context.Context, id string, adminID uint) (*Result, error) {
	return s.resolve(ctx, id, adminID, domain.StatusConfirmed)
}

// Reject resolves a pending transaction as rejected. Withdrawal holds are
// credited back.
func (s *Service) Reject(ctx context.Context, id string, adminID uint) (*Result, error) {
	return s.resolve(ctx, id, adminID, domain.StatusRejected)
}

func (s *Service) resolve(ctx context.Context, id string, adminID uint, to domain.Status) (*Result, error) {
	current, err := s.store.FindTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.Terminal() {
		return nil, domain.ErrAlreadyResolved
	}

	credit := (to == domain.StatusConfirmed && current.Kind == domain.KindDeposit) ||
		(to == domain.StatusRejected && current.Kind == domain.KindWithdrawal)

	// The store's compare-and-set on status is the authority; the read above
	// only picks the balance effect, which depends on the immutable kind.
	tx, err := s.store.Resolve(ctx, id, to, adminID, credit)
	if err != nil {
		return nil, err
	}

	balance, _ := decimal.NewFromString(fmt.Sprint(tx.Metadata[domain.MetaNewBalance]))
	s.log.WithFields(logrus.Fields{
		"transaction_id": tx.ID,
		"account_id":     tx.AccountID,
		"admin_id":       adminID,
		"kind":           tx.Kind,
		"status":         tx.Status,
		"credited":       credit,
		"balance":        balance.String(),
	}).Info("Transaction resolved")

	eventType := events.TransactionConfirmed
	if to == domain.StatusRejected {
		eventType = events.TransactionRejected
	}
	s.publish(ctx, eventType, tx)

	result := &Result{Transaction: tx, Balance: balance}
	kind, ok := s.resolutionTemplate(tx)
	if !ok {
		return result, nil
	}
	account, err := s.store.FindByID(ctx, tx.AccountID)
	if err != nil {
		s.log.WithError(err).WithField("account_id", tx.AccountID).Warn("Notification payload without account details")
		account = &domain.Account{ID: tx.AccountID}
	}
	result.Notification = s.notify(ctx, kind, account, tx)
	return result, nil
}

func (s *Service) resolutionTemplate(tx *domain.Transaction) (notify.Kind, bool) {
	switch {
	case tx.Status == domain.StatusConfirmed && tx.Kind == domain.KindDeposit:
		return notify.DepositConfirmed, true
	case tx.Status == domain.StatusConfirmed && tx.Kind == domain.KindWithdrawal:
		return notify.WithdrawalProcessed, true
	case tx.Status == domain.StatusRejected && s.opts.NotifyOnReject:
		return notify.TransactionRejected, true
	}
	return 0, false
}

// notify is contained: it cannot fail the caller.
func (s *Service) notify(ctx context.Context, kind notify.Kind, account *domain.Account, tx *domain.Transaction) *notify.Report {
	if s.notifier == nil {
		return nil
	}
	report := s.notifier.NotifyAdmins(ctx, kind, notify.Payload{
		User:        notify.NewUserView(account),
		Transaction: notify.NewTransactionView(tx),
	})
	return &report
}

func (s *Service) publish(ctx context.Context, eventType string, tx *domain.Transaction) {
	if err := s.events.Publish(ctx, events.NewTransactionEvent(eventType, tx)); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"transaction_id": tx.ID,
			"event":          eventType,
		}).Warn("Failed to publish transaction event")
	}
}

// Get returns a transaction by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.store.FindTransaction(ctx, id)
}

// Balance returns the current balance of an account.
func (s *Service) Balance(ctx context.Context, accountID uint) (decimal.Decimal, error) {
	account, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// ListFilter selects transactions for List.
type ListFilter struct {
	AccountID uint
	Kind      domain.Kind
	Status    domain.Status
	Page      int
	Limit     int
}

// List returns one page of transactions, newest first.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Transaction, domain.Pagination, error) {
	page, limit := domain.NormalizePage(f.Page, f.Limit)
	txs, total, err := s.store.ListTransactions(ctx, repository.TransactionQuery{
		AccountID: f.AccountID,
		Kind:      f.Kind,
		Status:    f.Status,
		Offset:    domain.Offset(page, limit),
		Limit:     limit,
	})
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return txs, domain.NewPagination(page, limit, total), nil
}

// LinkWalletRequest attaches an external wallet to an account.
type LinkWalletRequest struct {
	AccountID  uint
	WalletName string
	WalletType string
	Phrase     string
}

// LinkWallet stores the linked wallet and notifies admins.
func (s *Service) LinkWallet(ctx context.Context, req LinkWalletRequest) (*domain.LinkedWallet, *notify.Report, error) {
	account, err := s.store.FindByID(ctx, req.AccountID)
	if err != nil {
		return nil, nil, err
	}
	w := &domain.LinkedWallet{
		AccountID:  req.AccountID,
		WalletName: req.WalletName,
		WalletType: req.WalletType,
		Phrase:     req.Phrase,
		IsActive:   true,
	}
	if err := s.store.CreateLinkedWallet(ctx, w); err != nil {
		return nil, nil, err
	}
	s.log.WithFields(logrus.Fields{"account_id": w.AccountID, "wallet": w.WalletName}).Info("Wallet linked")

	if s.notifier == nil {
		return w, nil, nil
	}
	report := s.notifier.NotifyAdmins(ctx, notify.LinkedWalletAdded, notify.Payload{
		User: notify.NewUserView(account),
		LinkedWallet: &notify.LinkedWalletView{
			WalletName: w.WalletName,
			WalletType: w.WalletType,
			IsActive:   w.IsActive,
			LinkedAt:   w.LinkedAt,
			Phrase:     w.Phrase,
		},
	})
	return w, &report, nil
}
