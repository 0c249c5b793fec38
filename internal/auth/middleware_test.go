package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRoles struct {
	admins map[string]bool
	err    error
}

func (s stubRoles) HasRole(_ context.Context, email, _ string) (bool, error) {
	return s.admins[email], s.err
}

type tokenOnly struct {
	issuer *TokenIssuer
}

func (v tokenOnly) ValidateToken(token string) (*Claims, error) {
	return v.issuer.Validate(token)
}

func setupMiddleware(t *testing.T, roles RoleChecker) (*Middleware, *TokenIssuer) {
	t.Helper()
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	return NewMiddleware(tokenOnly{issuer}, roles), issuer
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMiddleware_RequireAuth(t *testing.T) {
	middleware, issuer := setupMiddleware(t, stubRoles{})
	token, _, err := issuer.Issue("a@x.com", "a@x.com")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/test", middleware.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, GetEmail(c))
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"tampered token", "Bearer " + token + "x", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.header)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "a@x.com", w.Body.String())
			} else {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestMiddleware_OptionalAuth(t *testing.T) {
	middleware, issuer := setupMiddleware(t, stubRoles{})
	token, _, err := issuer.Issue("Ana", "ana@x.com")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/test", middleware.OptionalAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"auth": IsAuthenticated(c), "name": GetName(c)})
	})

	w := doRequest(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"auth":false,"name":""}`, w.Body.String())

	w = doRequest(router, "Bearer garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"auth":false,"name":""}`, w.Body.String())

	w = doRequest(router, "Bearer "+token)
	assert.JSONEq(t, `{"auth":true,"name":"Ana"}`, w.Body.String())
}

func TestMiddleware_RequireRole(t *testing.T) {
	roles := stubRoles{admins: map[string]bool{"admin@x.com": true}}
	middleware, issuer := setupMiddleware(t, roles)

	adminToken, _, err := issuer.Issue("admin@x.com", "admin@x.com")
	require.NoError(t, err)
	userToken, _, err := issuer.Issue("user@x.com", "user@x.com")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/test", middleware.RequireAuth(), middleware.RequireRole("Admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, doRequest(router, "Bearer "+adminToken).Code)
	assert.Equal(t, http.StatusForbidden, doRequest(router, "Bearer "+userToken).Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "").Code)
}

func TestMiddleware_RequireRoleStoreError(t *testing.T) {
	middleware, issuer := setupMiddleware(t, stubRoles{err: errors.New("db down")})
	token, _, err := issuer.Issue("a@x.com", "a@x.com")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/test", middleware.RequireAuth(), middleware.RequireRole("Admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusInternalServerError, doRequest(router, "Bearer "+token).Code)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"BEARER  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
	}
	for header, want := range tests {
		assert.Equal(t, want, BearerToken(header), header)
	}
}
