package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/santos/internal/config"
	"github.com/mrlokans/santos/internal/database/users"
)

// maxAuthBodyBytes bounds register/login/make-admin payloads.
const maxAuthBodyBytes = 64 << 10

// AuthEventLogger records authentication events for the audit trail.
type AuthEventLogger interface {
	LogAuth(userEmail, action, ipAddr string, success bool)
}

// AuthObserver receives authentication counters.
type AuthObserver interface {
	IncrementLogin(success bool)
	IncrementLockouts()
	IncrementUsersRegistered()
}

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service     *Service
	rateLimiter *RateLimiter
	audit       AuthEventLogger
	observer    AuthObserver
}

// NewAuthController creates a new authentication controller. audit and
// observer may be nil.
func NewAuthController(service *Service, cfg config.Auth, audit AuthEventLogger, observer AuthObserver) *AuthController {
	rateLimiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &AuthController{
		service:     service,
		rateLimiter: rateLimiter,
		audit:       audit,
		observer:    observer,
	}
}

// RegisterRoutes registers authentication and debug routes under the API group.
func (ac *AuthController) RegisterRoutes(api *gin.RouterGroup, middleware *Middleware) {
	authGroup := api.Group("/auth")
	authGroup.POST("/register", ac.Register)
	authGroup.POST("/registrar", ac.Register)
	authGroup.POST("/login", ac.Login)

	debug := api.Group("/debug")
	debug.POST("/make-admin", ac.MakeAdmin)
	debug.GET("/whoami", middleware.OptionalAuth(), ac.WhoAmI)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

// credentialsRequest accepts "senha" as an alias of "password".
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Senha    string `json:"senha"`
}

func (r credentialsRequest) password() string {
	if r.Password != "" {
		return r.Password
	}
	return r.Senha
}

// Register handles POST /api/auth/register.
func (ac *AuthController) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	err := ac.service.Register(c.Request.Context(), req.Email, req.password())
	if err != nil {
		var verrs ValidationErrors
		if errors.As(err, &verrs) {
			ac.logAuth(req.Email, "register", c.ClientIP(), false)
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "registration failed",
				"code":    "validation_failed",
				"details": verrs,
			})
			return
		}
		log.Printf("Registration failed for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ac.logAuth(req.Email, "register", c.ClientIP(), true)
	if ac.observer != nil {
		ac.observer.IncrementUsersRegistered()
	}
	c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
}

// Login handles POST /api/auth/login.
func (ac *AuthController) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	ip := c.ClientIP()
	if allowed, retryAfter := ac.rateLimiter.Allow(ip, req.Email); !allowed {
		ac.tooManyAttempts(c, retryAfter.Seconds())
		return
	}

	result, err := ac.service.Login(c.Request.Context(), req.Email, req.password())
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			ac.logAuth(req.Email, "login_failed", ip, false)
			if ac.observer != nil {
				ac.observer.IncrementLogin(false)
			}
			if locked, _ := ac.rateLimiter.RecordFailure(ip, req.Email); locked {
				ac.logAuth(req.Email, "login_locked", ip, false)
				if ac.observer != nil {
					ac.observer.IncrementLockouts()
				}
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidCredentials.Error()})
			return
		}
		log.Printf("Login failed for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ac.rateLimiter.RecordSuccess(ip, req.Email)
	ac.logAuth(result.Email, "login", ip, true)
	if ac.observer != nil {
		ac.observer.IncrementLogin(true)
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     result.Token,
		"user":      result.Email,
		"expiresAt": result.ExpiresAt,
	})
}

func (ac *AuthController) tooManyAttempts(c *gin.Context, seconds float64) {
	retry := int(math.Ceil(seconds))
	c.Header("Retry-After", fmt.Sprint(retry))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":       "too many login attempts",
		"retry_after": retry,
	})
}

// MakeAdmin handles POST /api/debug/make-admin. The body may be empty, a
// JSON string, an object with an "email" field or plain text.
func (ac *AuthController) MakeAdmin(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAuthBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := ac.service.PromoteToAdmin(c.Request.Context(), parseEmailBody(raw))
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, users.ErrRoleNotFound), errors.Is(err, ErrEmailRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("Promotion to admin failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	ac.logAuth(result.Email, "promote_admin", c.ClientIP(), true)
	message := fmt.Sprintf("User %s is now an Admin", result.Email)
	if result.AlreadyAdmin {
		message = fmt.Sprintf("User %s is already an Admin", result.Email)
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func parseEmailBody(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var asObject struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil {
		return asObject.Email
	}

	return string(raw)
}

// WhoAmI handles GET /api/debug/whoami.
func (ac *AuthController) WhoAmI(c *gin.Context) {
	headers := make(map[string]string, len(c.Request.Header))
	for name, values := range c.Request.Header {
		headers[name] = strings.Join(values, ", ")
	}

	claims := []Claim{}
	if tokenClaims := GetClaims(c); tokenClaims != nil {
		claims = tokenClaims.List()
	}

	c.JSON(http.StatusOK, gin.H{
		"isAuthenticated": IsAuthenticated(c),
		"name":            GetName(c),
		"claims":          claims,
		"headers":         headers,
	})
}

func (ac *AuthController) logAuth(email, action, ip string, success bool) {
	if ac.audit != nil {
		ac.audit.LogAuth(email, action, ip, success)
	}
}
