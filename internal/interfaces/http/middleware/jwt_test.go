package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/staff"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
)

func newTestJWT(t *testing.T, exp time.Duration) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: exp,
		Issuer:                "storefront-test",
	})
	require.NoError(t, err)
	return svc
}

func issue(t *testing.T, svc *auth.JWTService, role staff.Role) (*staff.Staff, string) {
	t.Helper()
	member := &staff.Staff{Email: "ops@shop.test", Name: "Ops", Role: role, Active: true}
	member.ID = uuid.New()
	token, err := svc.Issue(member)
	require.NoError(t, err)
	return member, token.Token
}

func authRouter(cfg JWTConfig, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), JWTAuth(cfg))
	handlers := append(extra, func(c *gin.Context) {
		c.String(http.StatusOK, GetJWTStaffID(c))
	})
	r.GET("/admin", handlers...)
	return r
}

func get(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth_ValidToken(t *testing.T) {
	svc := newTestJWT(t, time.Hour)
	member, token := issue(t, svc, staff.RoleStaff)

	w := get(authRouter(JWTConfig{Tokens: svc}), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, member.ID.String(), w.Body.String())
}

func TestJWTAuth_Rejections(t *testing.T) {
	svc := newTestJWT(t, time.Hour)
	_, token := issue(t, svc, staff.RoleStaff)
	other, err := auth.NewJWTService(config.JWTConfig{Secret: "another-secret-key-at-least-32-chars", Issuer: "storefront-test"})
	require.NoError(t, err)
	_, foreign := issue(t, other, staff.RoleStaff)
	foreignIssuer, err := auth.NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else"})
	require.NoError(t, err)
	_, wrongIssuer := issue(t, foreignIssuer, staff.RoleStaff)
	router := authRouter(JWTConfig{Tokens: svc})

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "ERR_UNAUTHORIZED"},
		{"not bearer", "Basic " + token, "ERR_UNAUTHORIZED"},
		{"empty bearer", "Bearer ", "ERR_UNAUTHORIZED"},
		{"garbage", "Bearer not-a-jwt", "ERR_TOKEN_INVALID"},
		{"wrong issuer", "Bearer " + wrongIssuer, "ERR_TOKEN_INVALID"},
		{"wrong secret", "Bearer " + foreign, "ERR_TOKEN_INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestJWTAuth_Expired(t *testing.T) {
	svc := newTestJWT(t, time.Nanosecond)
	_, token := issue(t, svc, staff.RoleStaff)
	time.Sleep(1100 * time.Millisecond)

	w := get(authRouter(JWTConfig{Tokens: svc}), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_TOKEN_EXPIRED")
}

func TestJWTAuth_Revoked(t *testing.T) {
	ctx := context.Background()
	svc := newTestJWT(t, time.Hour)

	t.Run("logged out token", func(t *testing.T) {
		revocations := auth.NewMemoryRevocations()
		_, token := issue(t, svc, staff.RoleStaff)
		claims, err := svc.Validate(token)
		require.NoError(t, err)
		require.NoError(t, revocations.RevokeToken(ctx, claims.ID, time.Hour))

		w := get(authRouter(JWTConfig{Tokens: svc, Revocations: revocations}), "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_REVOKED")
	})

	t.Run("deactivated staff", func(t *testing.T) {
		revocations := auth.NewMemoryRevocations()
		member, token := issue(t, svc, staff.RoleStaff)
		require.NoError(t, revocations.RevokeStaff(ctx, member.ID.String(), time.Hour))

		w := get(authRouter(JWTConfig{Tokens: svc, Revocations: revocations}), "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	svc := newTestJWT(t, time.Hour)
	router := authRouter(JWTConfig{Tokens: svc}, RequireRole(staff.RoleAdmin))

	_, staffToken := issue(t, svc, staff.RoleStaff)
	w := get(router, "Bearer "+staffToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_FORBIDDEN")

	_, adminToken := issue(t, svc, staff.RoleAdmin)
	assert.Equal(t, http.StatusOK, get(router, "Bearer "+adminToken).Code)
}
