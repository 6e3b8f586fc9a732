package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appidentity "github.com/tallybridge/backend/internal/application/identity"
	"github.com/tallybridge/backend/internal/domain/identity"
	"github.com/tallybridge/backend/internal/infrastructure/auth"
	"github.com/tallybridge/backend/internal/infrastructure/config"
	"github.com/tallybridge/backend/internal/infrastructure/persistence"
	"github.com/tallybridge/backend/internal/interfaces/http/dto"
	"github.com/tallybridge/backend/internal/interfaces/http/middleware"
)

// testJWTConfig returns a default JWT config for tests
func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                "test-secret-key-32-characters-long",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	}
}

type authHandlerFixture struct {
	users     *persistence.GormUserRepository
	jwt       *auth.JWTService
	blacklist *auth.InMemoryTokenBlacklist
	service   *appidentity.AuthService
	router    *gin.Engine
}

// newAuthHandlerFixture wires an AuthHandler with a real auth service backed
// by an in-memory database, behind the same JWT middleware used in production.
func newAuthHandlerFixture(t *testing.T) *authHandlerFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&identity.User{}))

	users := persistence.NewGormUserRepository(db)
	jwtService := auth.NewJWTService(testJWTConfig())
	blacklist := auth.NewInMemoryTokenBlacklist()
	service := appidentity.NewAuthService(users, jwtService, blacklist, zap.NewNop())
	handler := NewAuthHandler(service)

	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
	})

	router := gin.New()
	router.POST("/api/v1/auth/login", handler.Login)
	protected := router.Group("/api/v1", jwtMiddleware)
	protected.POST("/auth/logout", handler.Logout)
	protected.GET("/auth/me", handler.GetCurrentUser)
	protected.PUT("/auth/password", handler.ChangePassword)

	return &authHandlerFixture{
		users:     users,
		jwt:       jwtService,
		blacklist: blacklist,
		service:   service,
		router:    router,
	}
}

func (f *authHandlerFixture) seedUser(t *testing.T, email, password string, role identity.Role) *identity.User {
	t.Helper()

	user, err := identity.NewUser(email, "Test User", password, role)
	require.NoError(t, err)
	require.NoError(t, f.users.Save(context.Background(), user))
	return user
}

func (f *authHandlerFixture) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(LoginRequest{Email: email, Password: password})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	return w
}

func (f *authHandlerFixture) loginToken(t *testing.T, email, password string) string {
	t.Helper()

	w := f.login(t, email, password)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token.AccessToken)
	return resp.Data.Token.AccessToken
}

func TestAuthHandlerLogin(t *testing.T) {
	t.Run("returns token and user for valid credentials", func(t *testing.T) {
		f := newAuthHandlerFixture(t)
		f.seedUser(t, "approver@example.com", "passw0rd1", identity.RoleApprover)

		w := f.login(t, "approver@example.com", "passw0rd1")

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool          `json:"success"`
			Data    LoginResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Data.Token.AccessToken)
		assert.Equal(t, "Bearer", resp.Data.Token.TokenType)
		assert.Equal(t, "approver@example.com", resp.Data.User.Email)
		assert.Equal(t, "approver", resp.Data.User.Role)
	})

	t.Run("rejects wrong credentials with 401", func(t *testing.T) {
		f := newAuthHandlerFixture(t)
		f.seedUser(t, "approver@example.com", "passw0rd1", identity.RoleApprover)

		w := f.login(t, "approver@example.com", "wrongpass1")

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
	})

	t.Run("rejects a deactivated account with 403", func(t *testing.T) {
		f := newAuthHandlerFixture(t)
		user := f.seedUser(t, "gone@example.com", "passw0rd1", identity.RoleRequester)
		require.NoError(t, user.Deactivate())
		require.NoError(t, f.users.Save(context.Background(), user))

		w := f.login(t, "gone@example.com", "passw0rd1")

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("rejects a malformed body with 400", func(t *testing.T) {
		f := newAuthHandlerFixture(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":"not-an-email"}`))
		req.Header.Set("Content-Type", "application/json")
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandlerLogout(t *testing.T) {
	t.Run("invalidates the token", func(t *testing.T) {
		f := newAuthHandlerFixture(t)
		f.seedUser(t, "approver@example.com", "passw0rd1", identity.RoleApprover)
		token := f.loginToken(t, "approver@example.com", "passw0rd1")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		// The blacklisted token no longer passes the middleware.
		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "TOKEN_REVOKED")
	})

	t.Run("requires authentication", func(t *testing.T) {
		f := newAuthHandlerFixture(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandlerGetCurrentUser(t *testing.T) {
	t.Run("returns the authenticated user", func(t *testing.T) {
		f := newAuthHandlerFixture(t)
		user := f.seedUser(t, "admin@example.com", "passw0rd1", identity.RoleAdmin)
		token := f.loginToken(t, "admin@example.com", "passw0rd1")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data CurrentUserResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, user.ID, resp.Data.User.ID)
		assert.Equal(t, "admin@example.com", resp.Data.User.Email)
		assert.Equal(t, "admin", resp.Data.User.Role)
	})

	t.Run("rejects requests without a token", func(t *testing.T) {
		f := newAuthHandlerFixture(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandlerChangePassword(t *testing.T) {
	t.Run("changes the password", func(t *testing.T) {
		f := newAuthHandlerFixture(t)
		f.seedUser(t, "approver@example.com", "passw0rd1", identity.RoleApprover)
		token := f.loginToken(t, "approver@example.com", "passw0rd1")

		body, err := json.Marshal(ChangePasswordRequest{
			OldPassword: "passw0rd1",
			NewPassword: "n3wpassword",
		})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/v1/auth/password", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		// The old password no longer works, the new one does.
		w = f.login(t, "approver@example.com", "passw0rd1")
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = f.login(t, "approver@example.com", "n3wpassword")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects a wrong current password", func(t *testing.T) {
		f := newAuthHandlerFixture(t)
		f.seedUser(t, "approver@example.com", "passw0rd1", identity.RoleApprover)
		token := f.loginToken(t, "approver@example.com", "passw0rd1")

		body, err := json.Marshal(ChangePasswordRequest{
			OldPassword: "wrongpass1",
			NewPassword: "n3wpassword",
		})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/v1/auth/password", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})
}
