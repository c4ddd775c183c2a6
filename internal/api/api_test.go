package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_admin/internal/admin"
	"wallet_admin/internal/domain"
	"wallet_admin/internal/notify"
	"wallet_admin/internal/repository"
	"wallet_admin/internal/utils"
	"wallet_admin/internal/wallet"
)

const secret = "test-secret"

type server struct {
	t      *testing.T
	router *gin.Engine
	store  *repository.Memory
	redis  *miniredis.Miniredis
	admin  *domain.Account
	user   *domain.Account
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	store := repository.NewMemory()
	ctx := context.Background()

	adminAccount := &domain.Account{Email: "admin@example.com", FirstName: "Ada", Role: domain.RoleAdmin, IsActive: true}
	user := &domain.Account{Email: "user@example.com", FirstName: "Sam", Role: domain.RoleUser, IsActive: true, Balance: decimal.NewFromInt(150)}
	require.NoError(t, store.Create(ctx, adminAccount))
	require.NoError(t, store.Create(ctx, user))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	dispatcher := notify.NewDispatcher(notify.NewRenderer("http://localhost:3000/admin"), "noreply@example.com", time.Second, log)
	dispatcher.Init(nil)
	notifier := notify.NewAdminNotifier(store, dispatcher, log)

	r := gin.New()
	RegisterRoutes(r, Deps{
		Accounts:   store,
		Wallet:     wallet.NewService(store, notifier, nil, log, wallet.Options{}),
		Admin:      admin.NewService(store, store, log),
		Dispatcher: dispatcher,
		Redis:      rdb,
		CacheTTL:   time.Minute,
		JWTSecret:  secret,
	})
	return &server{t: t, router: r, store: store, redis: mr, admin: adminAccount, user: user}
}

func (s *server) do(method, path string, as *domain.Account, body any) (int, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		token, err := utils.GenerateJWT(as, secret, time.Now())
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func (s *server) balance(id uint) decimal.Decimal {
	s.t.Helper()
	a, err := s.store.FindByID(context.Background(), id)
	require.NoError(s.t, err)
	return a.Balance
}

func TestRegisterAndLogin(t *testing.T) {
	s := newServer(t)

	code, _ := s.do(http.MethodPost, "/auth/register", nil, map[string]string{
		"email": "New@Example.com", "password": "correct-horse", "firstName": "Nia", "lastName": "Cole",
	})
	require.Equal(t, http.StatusCreated, code)

	code, _ = s.do(http.MethodPost, "/auth/register", nil, map[string]string{
		"email": "new@example.com", "password": "correct-horse", "firstName": "Nia", "lastName": "Cole",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodPost, "/auth/login", nil, map[string]string{"email": "new@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := s.do(http.MethodPost, "/auth/login", nil, map[string]string{"email": "NEW@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["token"])

	account, err := s.store.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.NotNil(t, account.LastLogin)
	assert.Equal(t, domain.RoleUser, account.Role)

	_, err = s.store.UpdateByID(context.Background(), account.ID, repository.AccountPatch{IsActive: repository.Bool(false)})
	require.NoError(t, err)
	code, _ = s.do(http.MethodPost, "/auth/login", nil, map[string]string{"email": "new@example.com", "password": "correct-horse"})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestWithdrawalReviewFlow(t *testing.T) {
	s := newServer(t)

	code, _ := s.do(http.MethodPost, "/wallet/withdrawals", s.user, map[string]string{"amount": "100", "currency": "USDT"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := s.do(http.MethodPost, "/wallet/withdrawals", s.user, map[string]string{
		"amount": "100", "currency": "USDT", "toAddress": "0xdest",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, s.balance(s.user.ID).Equal(decimal.NewFromInt(50)))
	id := body["transaction"].(map[string]any)["transactionId"].(string)

	notification := body["notification"].(map[string]any)
	assert.Equal(t, true, notification["success"])
	results := notification["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, string(notify.Simulated), results[0].(map[string]any)["status"])

	code, _ = s.do(http.MethodPost, "/admin/transactions/"+id+"/reject", s.user, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.do(http.MethodPost, "/admin/transactions/"+id+"/reject", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "rejected", body["transaction"].(map[string]any)["status"])
	assert.True(t, s.balance(s.user.ID).Equal(decimal.NewFromInt(150)))

	code, _ = s.do(http.MethodPost, "/admin/transactions/"+id+"/confirm", s.admin, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.True(t, s.balance(s.user.ID).Equal(decimal.NewFromInt(150)))

	code, _ = s.do(http.MethodPost, "/admin/transactions/missing/confirm", s.admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDepositConfirmAndHistory(t *testing.T) {
	s := newServer(t)

	code, body := s.do(http.MethodPost, "/wallet/deposits", s.user, map[string]any{"amount": 20, "currency": "btc", "txHash": "0xabc"})
	require.Equal(t, http.StatusCreated, code)
	id := body["transaction"].(map[string]any)["transactionId"].(string)

	code, _ = s.do(http.MethodPost, "/wallet/deposits", s.user, map[string]any{"amount": 0, "currency": "btc"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(http.MethodPost, "/admin/transactions/"+id+"/confirm", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "170", body["transaction"].(map[string]any)["metadata"].(map[string]any)[domain.MetaNewBalance])

	code, body = s.do(http.MethodGet, "/wallet", s.user, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "170", body["balance"])

	code, body = s.do(http.MethodGet, "/wallet/transactions?status=confirmed", s.user, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["transactions"].([]any), 1)

	code, body = s.do(http.MethodGet, "/admin/transactions?kind=deposit&status=pending", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["transactions"])
}

func TestSuspendActivateAndCache(t *testing.T) {
	s := newServer(t)
	path := "/admin/users/suspended"

	code, body := s.do(http.MethodGet, path, s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["cached"])
	assert.Empty(t, body["users"])

	code, body = s.do(http.MethodGet, path, s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["cached"])

	code, _ = s.do(http.MethodPut, "/admin/users/1/suspend", s.admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(http.MethodPut, "/admin/users/2/suspend", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	user := body["user"].(map[string]any)
	assert.Equal(t, false, user["isActive"])
	assert.NotContains(t, user, "password")
	assert.Empty(t, s.redis.Keys())

	code, body = s.do(http.MethodGet, path, s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["cached"])
	assert.Len(t, body["users"], 1)

	code, _ = s.do(http.MethodGet, "/wallet", s.user, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPut, "/admin/users/2/activate", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodGet, "/wallet", s.user, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPut, "/admin/users/99/activate", s.admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodPut, "/admin/users/abc/activate", s.admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestListUsersSearch(t *testing.T) {
	s := newServer(t)

	code, body := s.do(http.MethodGet, "/admin/users?search=SAM", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	users := body["users"].([]any)
	require.Len(t, users, 1)
	assert.Equal(t, "user@example.com", users[0].(map[string]any)["email"])
	assert.True(t, s.redis.Exists(utils.AdminUsersPrefix+"search=SAM"))

	code, body = s.do(http.MethodGet, "/admin/users/2", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "user@example.com", body["user"].(map[string]any)["email"])
}

func TestTestEmailEndpoint(t *testing.T) {
	s := newServer(t)

	code, body := s.do(http.MethodPost, "/admin/notifications/test?to=ops@example.com", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(notify.StateDisabled), body["state"])
	result := body["result"].(map[string]any)
	assert.Equal(t, "ops@example.com", result["email"])
	assert.Equal(t, string(notify.Simulated), result["status"])

	code, _ = s.do(http.MethodPost, "/admin/notifications/test?template=nope", s.admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLinkWallet(t *testing.T) {
	s := newServer(t)

	code, body := s.do(http.MethodPost, "/wallet/linked", s.user, map[string]string{"walletName": "Ledger", "phrase": "alpha beta"})
	require.Equal(t, http.StatusCreated, code)
	assert.NotContains(t, body["wallet"].(map[string]any), "phrase")
	assert.Equal(t, notify.LinkedWalletAdded.String(), body["notification"].(map[string]any)["template"])
}

func TestHealthAndNotFound(t *testing.T) {
	s := newServer(t)

	code, body := s.do(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "development", body["environment"])
	assert.Equal(t, Version, body["version"])
	assert.NotEmpty(t, body["timestamp"])

	code, body = s.do(http.MethodGet, "/nope/at/all", nil, nil)
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "/nope/at/all", body["path"])
}

func TestSetStatusAndUserWallet(t *testing.T) {
	s := newServer(t)
	path := "/admin/users/2/status"

	code, _ := s.do(http.MethodPut, path, s.admin, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := s.do(http.MethodPut, path, s.admin, map[string]any{"isActive": false})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["user"].(map[string]any)["isActive"])
	code, _ = s.do(http.MethodGet, "/wallet", s.user, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.do(http.MethodPut, path, s.admin, map[string]any{"isActive": true})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["user"].(map[string]any)["isActive"])

	code, _ = s.do(http.MethodPut, "/admin/users/1/status", s.admin, map[string]any{"isActive": false})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(http.MethodPut, "/admin/users/99/status", s.admin, map[string]any{"isActive": true})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodPost, "/wallet/linked", s.user, map[string]string{"walletName": "Ledger", "phrase": "alpha beta"})
	require.Equal(t, http.StatusCreated, code)

	code, body = s.do(http.MethodGet, "/admin/users/2/wallet", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	w := body["wallet"].(map[string]any)
	assert.Equal(t, "150", w["balance"])
	linked := w["linkedWallets"].([]any)
	require.Len(t, linked, 1)
	assert.Equal(t, "Ledger", linked[0].(map[string]any)["walletName"])
	assert.NotContains(t, linked[0].(map[string]any), "phrase")

	code, body = s.do(http.MethodGet, "/admin/users/2", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "150", body["wallet"].(map[string]any)["balance"])

	code, _ = s.do(http.MethodGet, "/admin/users/99/wallet", s.admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUserListingCacheDroppedOnBalanceChange(t *testing.T) {
	s := newServer(t)
	key := utils.AdminUsersPrefix + "search="
	list := func() {
		code, _ := s.do(http.MethodGet, "/admin/users", s.admin, nil)
		require.Equal(t, http.StatusOK, code)
		require.True(t, s.redis.Exists(key))
	}

	list()
	code, _ := s.do(http.MethodPost, "/auth/register", nil, map[string]string{
		"email": "fresh@example.com", "password": "correct-horse", "firstName": "F", "lastName": "R",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.False(t, s.redis.Exists(key))

	code, body := s.do(http.MethodGet, "/admin/users", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["users"], 3)

	list()
	code, body = s.do(http.MethodPost, "/wallet/withdrawals", s.user, map[string]string{
		"amount": "10", "currency": "usdt", "toAddress": "0xdest",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.False(t, s.redis.Exists(key))
	id := body["transaction"].(map[string]any)["transactionId"].(string)

	list()
	code, _ = s.do(http.MethodPost, "/admin/transactions/"+id+"/reject", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, s.redis.Exists(key))

	code, body = s.do(http.MethodGet, "/admin/users?search=user@", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "150", body["users"].([]any)[0].(map[string]any)["balance"])
}
