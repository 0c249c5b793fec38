// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, category/role seeding
//	├── saints/          # Saint CRUD with miracles, places and gallery images
//	├── categories/      # Read access to the seeded categories
//	├── users/           # Users and role assignment
//	└── audit/           # Audit event log
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase(cfg.Database)
//
//	// Create domain-specific repositories
//	saintsRepo := saints.NewRepository(db.DB)
//	usersRepo := users.NewRepository(db.DB)
//
//	// Use repositories
//	saint, err := saintsRepo.GetByID(ctx, 42)
//
// # Drivers
//
// DATABASE_DRIVER selects SQLite (DATABASE_PATH, the default) or PostgreSQL
// (DATABASE_DSN). Both share the same gorm models and migrations.
package database
