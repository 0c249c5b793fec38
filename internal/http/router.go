package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/santos/internal/auth"
	"github.com/mrlokans/santos/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())

	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.EnableHSTS {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}
	router.Use(CORSMiddleware(cfg.AllowedOrigins))

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version, cfg.Counters)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := router.Group("/api")

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(api, cfg.AuthMiddleware)
	}

	var writes WriteCounter
	if cfg.Metrics != nil {
		writes = cfg.Metrics
	}
	saints := NewSaintsController(cfg.Catalog, cfg.Auditor, writes)
	saints.RegisterRoutes(api, cfg.AuthMiddleware)

	categories := NewCategoriesController(cfg.Catalog)
	api.GET("/categorias", categories.List)

	// Audit log is admin only
	if cfg.AuditReader != nil {
		auditController := NewAuditController(cfg.AuditReader)
		api.GET("/audit",
			cfg.AuthMiddleware.RequireAuth(),
			cfg.AuthMiddleware.RequireRole(entities.RoleAdmin),
			auditController.GetAuditEvents,
		)
	}

	return router
}
