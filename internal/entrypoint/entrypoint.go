package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/santos/internal/audit"
	"github.com/mrlokans/santos/internal/auth"
	"github.com/mrlokans/santos/internal/catalog"
	"github.com/mrlokans/santos/internal/config"
	"github.com/mrlokans/santos/internal/database"
	auditrepo "github.com/mrlokans/santos/internal/database/audit"
	"github.com/mrlokans/santos/internal/database/categories"
	"github.com/mrlokans/santos/internal/database/saints"
	"github.com/mrlokans/santos/internal/database/users"
	http_controllers "github.com/mrlokans/santos/internal/http"
	"github.com/mrlokans/santos/internal/metrics"
	"github.com/mrlokans/santos/internal/scheduler"
	"github.com/mrlokans/santos/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work first so nothing enqueues against a closing server
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Santos API v%s", version)

	if cfg.Auth.JWTSecret == "" {
		log.Fatalf("AUTH_JWT_SECRET is not set; refusing to start without a signing key")
	}

	// Migrations and seeds run inside NewDatabase; any failure aborts startup
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()
	log.Printf("Database ready (driver: %s)", cfg.Database.Driver)

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	if err != nil {
		log.Fatalf("Failed to initialize token issuer: %v", err)
	}

	saintRepo := saints.NewRepository(db.DB)
	userRepo := users.NewRepository(db.DB)

	authService, err := auth.NewService(userRepo, tokens, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize auth service: %v", err)
	}

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	appMetrics := metrics.New()
	authController := auth.NewAuthController(authService, cfg.Auth, auditService, appMetrics)

	catalogService := catalog.NewService(saintRepo, categories.NewRepository(db.DB))

	// Initialize task queue and the audit retention schedule if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var cleanupScheduler *scheduler.AuditCleanupScheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Tasks.DatabasePath, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewCleanupAuditEventsQueue(auditService))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		cleanupScheduler = scheduler.NewAuditCleanupScheduler(taskClient, cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays)
		if err := cleanupScheduler.Start(taskCtx); err != nil {
			log.Printf("WARNING: audit cleanup disabled: %v", err)
			cleanupScheduler = nil
		}
	} else {
		log.Printf("Background tasks disabled; audit events will not be purged")
	}

	counters := map[string]http_controllers.RecordCounter{
		"saints": saintRepo,
		"users":  userRepo,
	}
	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Catalog:        catalogService,
		Database:       db,
		AuthController: authController,
		AuthMiddleware: auth.NewMiddleware(authService, authService),
		Auditor:        auditService,
		AuditReader:    auditService,
		Metrics:        appMetrics,
		Counters:       counters,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableHSTS:     cfg.HTTP.EnableHSTS,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		if cleanupScheduler != nil {
			cleanupScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		authController.Stop()
	}

	Serve(router, cfg, onShutdown)

	// Flush audit writes from in-flight requests before the database closes
	auditService.Wait()
}
