package auth

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys for caller identity
const (
	ContextKeyClaims = "auth_claims"
	ContextKeyEmail  = "auth_email"
	ContextKeyName   = "auth_name"
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*Claims, error)
}

// RoleChecker answers role membership from the user store.
type RoleChecker interface {
	HasRole(ctx context.Context, email, role string) (bool, error)
}

// Middleware authenticates requests carrying a bearer token.
type Middleware struct {
	tokens TokenValidator
	roles  RoleChecker
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(tokens TokenValidator, roles RoleChecker) *Middleware {
	return &Middleware{
		tokens: tokens,
		roles:  roles,
	}
}

// OptionalAuth records the caller when a valid token is present and never
// rejects the request.
func (m *Middleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := m.tryBearerAuth(c); claims != nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// RequireAuth rejects requests without a valid bearer token.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := m.tryBearerAuth(c)
		if claims == nil {
			c.Header("WWW-Authenticate", `Bearer`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// RequireRole must run after RequireAuth. Membership is read from the store
// on every request so revocations apply immediately.
func (m *Middleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := GetEmail(c)
		ok, err := m.roles.HasRole(c.Request.Context(), email, role)
		if err != nil {
			log.Printf("Role check failed for %s: %v", email, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "internal server error",
			})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

func (m *Middleware) tryBearerAuth(c *gin.Context) *Claims {
	token := BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		return nil
	}
	claims, err := m.tokens.ValidateToken(token)
	if err != nil {
		return nil
	}
	return claims
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func setClaims(c *gin.Context, claims *Claims) {
	c.Set(ContextKeyClaims, claims)
	c.Set(ContextKeyEmail, claims.Email)
	c.Set(ContextKeyName, claims.Name)
}

// GetClaims returns the validated claims, or nil for anonymous callers.
func GetClaims(c *gin.Context) *Claims {
	if v, exists := c.Get(ContextKeyClaims); exists {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}
	return nil
}

// GetEmail retrieves the authenticated caller's email from the context.
func GetEmail(c *gin.Context) string {
	return c.GetString(ContextKeyEmail)
}

// GetName retrieves the authenticated caller's name from the context.
func GetName(c *gin.Context) string {
	return c.GetString(ContextKeyName)
}

// IsAuthenticated returns true if the request carried a valid token.
func IsAuthenticated(c *gin.Context) bool {
	return GetClaims(c) != nil
}
