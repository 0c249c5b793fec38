package http

import (
	"github.com/mrlokans/santos/internal/auth"
	"github.com/mrlokans/santos/internal/database"
	"github.com/mrlokans/santos/internal/metrics"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Catalog  Catalog
	Database *database.Database

	// Authentication
	AuthController *auth.AuthController
	AuthMiddleware *auth.Middleware

	// Audit trail (optional)
	Auditor     SaintAuditor
	AuditReader AuditReader

	// Observability (optional)
	Metrics  *metrics.Metrics
	Counters map[string]RecordCounter // row counts reported by /health

	// CORS origins; empty disables CORS headers, "*" allows any origin.
	AllowedOrigins []string

	// Send Strict-Transport-Security on HTTPS requests.
	EnableHSTS bool

	// Application info
	Version string
}
