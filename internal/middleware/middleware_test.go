package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_admin/internal/domain"
	"wallet_admin/internal/repository"
	"wallet_admin/internal/utils"
)

const secret = "test-secret"

func router(store repository.AccountDirectory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	admin := r.Group("/admin", JWTAuthMiddleware(secret), AdminOnlyMiddleware(store))
	admin.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentAccount(c).ID})
	})
	user := r.Group("/wallet", JWTAuthMiddleware(secret), ActiveAccountMiddleware(store))
	user.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func call(t *testing.T, r *gin.Engine, path string, account *domain.Account) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if account != nil {
		token, err := utils.GenerateJWT(account, secret, time.Now())
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuthMiddlewares(t *testing.T) {
	store := repository.NewMemory()
	ctx := context.Background()
	admin := &domain.Account{Email: "admin@example.com", Role: domain.RoleAdmin, IsActive: true}
	user := &domain.Account{Email: "user@example.com", IsActive: true}
	suspended := &domain.Account{Email: "gone@example.com", IsActive: false}
	for _, a := range []*domain.Account{admin, user, suspended} {
		require.NoError(t, store.Create(ctx, a))
	}
	r := router(store)

	assert.Equal(t, http.StatusUnauthorized, call(t, r, "/admin/ping", nil))
	assert.Equal(t, http.StatusForbidden, call(t, r, "/admin/ping", user))
	assert.Equal(t, http.StatusOK, call(t, r, "/admin/ping", admin))
	assert.Equal(t, http.StatusOK, call(t, r, "/wallet/ping", user))
	assert.Equal(t, http.StatusForbidden, call(t, r, "/wallet/ping", suspended))
	assert.Equal(t, http.StatusUnauthorized, call(t, r, "/wallet/ping", &domain.Account{ID: 999}))
}
