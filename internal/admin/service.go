// Package admin implements the account actions of the admin console.
package admin

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet_admin/internal/domain"
	"wallet_admin/internal/repository"
)

// Search field sets used by the listings
var (
	suspendedSearchFields = []string{repository.FieldEmail, repository.FieldFirstName, repository.FieldLastName}
	allSearchFields       = []string{repository.FieldEmail, repository.FieldFirstName, repository.FieldLastName, repository.FieldPhone, repository.FieldCountry}
)

// Service suspends, activates and lists accounts
type Service struct {
	accounts repository.AccountDirectory
	wallets  repository.LinkedWalletStore
	log      logrus.FieldLogger
}

// NewService creates the account actions over accounts and their linked wallets
func NewService(accounts repository.AccountDirectory, wallets repository.LinkedWalletStore, log logrus.FieldLogger) *Service {
	return &Service{accounts: accounts, wallets: wallets, log: log}
}

// Suspend deactivates target. An admin can never suspend itself.
func (s *Service) Suspend(ctx context.Context, targetID, actingAdminID uint) (domain.AccountProjection, error) {
	if targetID == actingAdminID {
		return domain.AccountProjection{}, domain.ErrSelfActionForbidden
	}
	return s.setActive(ctx, targetID, actingAdminID, false)
}

// Activate reactivates target
func (s *Service) Activate(ctx context.Context, targetID, actingAdminID uint) (domain.AccountProjection, error) {
	return s.setActive(ctx, targetID, actingAdminID, true)
}

// SetStatus sets the active flag directly. Deactivation goes through Suspend,
// so the self-suspension guard holds on this path too.
func (s *Service) SetStatus(ctx context.Context, targetID, actingAdminID uint, active bool) (domain.AccountProjection, error) {
	if active {
		return s.Activate(ctx, targetID, actingAdminID)
	}
	return s.Suspend(ctx, targetID, actingAdminID)
}

func (s *Service) setActive(ctx context.Context, targetID, actingAdminID uint, active bool) (domain.AccountProjection, error) {
	account, err := s.accounts.UpdateByID(ctx, targetID, repository.AccountPatch{IsActive: repository.Bool(active)})
	if err != nil {
		return domain.AccountProjection{}, err
	}
	action := "User suspended"
	if active {
		action = "User activated"
	}
	s.log.WithFields(logrus.Fields{
		"target_id": targetID,
		"admin_id":  actingAdminID,
		"email":     account.Email,
	}).Info(action)
	return account.Projection(), nil
}

// UserWallet is the admin view of an account's funds
type UserWallet struct {
	AccountID     uint                  `json:"accountId"`
	Balance       decimal.Decimal       `json:"balance"`
	LinkedWallets []domain.LinkedWallet `json:"linkedWallets"`
}

// UserDetails is one account together with its wallet
type UserDetails struct {
	User   domain.AccountProjection `json:"user"`
	Wallet UserWallet               `json:"wallet"`
}

// Wallet returns the balance and linked wallets of an account
func (s *Service) Wallet(ctx context.Context, id uint) (UserWallet, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return UserWallet{}, err
	}
	return s.wallet(ctx, account)
}

// Details returns the credential-free account plus its wallet
func (s *Service) Details(ctx context.Context, id uint) (UserDetails, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return UserDetails{}, err
	}
	w, err := s.wallet(ctx, account)
	if err != nil {
		return UserDetails{}, err
	}
	return UserDetails{User: account.Projection(), Wallet: w}, nil
}

func (s *Service) wallet(ctx context.Context, account *domain.Account) (UserWallet, error) {
	linked, err := s.wallets.ListLinkedWallets(ctx, account.ID)
	if err != nil {
		return UserWallet{}, err
	}
	return UserWallet{AccountID: account.ID, Balance: account.Balance, LinkedWallets: linked}, nil
}

// SuspendedPage is the suspended-users listing
type SuspendedPage struct {
	Users      []domain.AccountSummary `json:"users"`
	Pagination domain.Pagination       `json:"pagination"`
}

// ListSuspended pages through suspended regular users, newest first.
// Total counts the filtered set, not the page.
func (s *Service) ListSuspended(ctx context.Context, search string, page, limit int) (SuspendedPage, error) {
	page, limit = domain.NormalizePage(page, limit)
	q := repository.AccountQuery{
		Role:         domain.RoleUser,
		IsActive:     repository.Bool(false),
		Search:       strings.TrimSpace(search),
		SearchFields: suspendedSearchFields,
	}
	total, err := s.accounts.Count(ctx, q)
	if err != nil {
		return SuspendedPage{}, err
	}
	q.Offset, q.Limit = domain.Offset(page, limit), limit
	accounts, err := s.accounts.Find(ctx, q)
	if err != nil {
		return SuspendedPage{}, err
	}
	users := make([]domain.AccountSummary, 0, len(accounts))
	for i := range accounts {
		users = append(users, accounts[i].Summary())
	}
	return SuspendedPage{Users: users, Pagination: domain.NewPagination(page, limit, total)}, nil
}

// ListAll returns every matching account, any role, newest first. It is
// deliberately unpaginated: the console is internal.
func (s *Service) ListAll(ctx context.Context, search string) ([]domain.Account, error) {
	accounts, err := s.accounts.Find(ctx, repository.AccountQuery{
		Search:       strings.TrimSpace(search),
		SearchFields: allSearchFields,
	})
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}
