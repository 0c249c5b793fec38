package database

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/santos/internal/config"
	"github.com/mrlokans/santos/internal/entities"
)

// defaultCategories is the immutable reference set every installation starts with.
var defaultCategories = []entities.Category{
	{ID: 1, Name: "Mártires", Color: "#FFB7B2"},
	{ID: 2, Name: "Marianos e Virgens", Color: "#AEC6CF"},
	{ID: 3, Name: "Monges e Franciscanos", Color: "#C8B4A2"},
	{ID: 4, Name: "Doutores e Papas", Color: "#FDFD96"},
	{ID: 5, Name: "Apóstolos", Color: "#B0E57C"},
	{ID: 6, Name: "Confessores", Color: "#C3B1E1"},
	{ID: 7, Name: "Santos da Caridade", Color: "#FFDAC1"},
	{ID: 8, Name: "Santos Jovens", Color: "#FFB7CE"},
	{ID: 9, Name: "Fundadores", Color: "#B2F0E8"},
	{ID: 10, Name: "Místicos", Color: "#D3D3D3"},
	{ID: 11, Name: "Geral", Color: entities.DefaultCategoryColor},
	{ID: 12, Name: "Anjos e Arcanjos", Color: "#C1E1C1"},
}

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the configured store, migrates the schema and seeds the
// reference data. Seeding is check-then-create, so reruns are no-ops.
func NewDatabase(cfg config.Database) (*Database, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(parseLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.Category{},
		&entities.Saint{},
		&entities.Miracle{},
		&entities.Place{},
		&entities.GalleryImage{},
		&entities.Role{},
		&entities.User{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedCategories(); err != nil {
		return nil, fmt.Errorf("failed to seed categories: %w", err)
	}
	if err := database.seedRoles(); err != nil {
		return nil, fmt.Errorf("failed to seed roles: %w", err)
	}

	log.Printf("Database initialized successfully (%s)", cfg.Driver)

	return database, nil
}

func openDialector(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DatabaseDriverSQLite, "":
		if cfg.Path == "" {
			return nil, errors.New("database path is not set")
		}
		return sqlite.Open(sqliteDSN(cfg.Path)), nil
	case config.DatabaseDriverPostgres:
		if cfg.DSN == "" {
			return nil, errors.New("database DSN is not set")
		}
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// sqliteDSN enables foreign keys and a busy timeout so async audit writes
// wait for request transactions instead of failing with SQLITE_BUSY.
func sqliteDSN(path string) string {
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks connectivity of the underlying connection pool.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) seedCategories() error {
	for _, category := range defaultCategories {
		var existing entities.Category
		result := d.DB.Where("id = ?", category.ID).First(&existing)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			if err := d.DB.Create(&category).Error; err != nil {
				return fmt.Errorf("failed to create category %s: %w", category.Name, err)
			}
			log.Printf("Created category: %s", category.Name)
		} else if result.Error != nil {
			return result.Error
		}
	}
	return nil
}

func (d *Database) seedRoles() error {
	for _, name := range entities.DefaultRoles {
		var existing entities.Role
		result := d.DB.Where("name = ?", name).First(&existing)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			if err := d.DB.Create(&entities.Role{Name: name}).Error; err != nil {
				return fmt.Errorf("failed to create role %s: %w", name, err)
			}
			log.Printf("Created role: %s", name)
		} else if result.Error != nil {
			return result.Error
		}
	}
	return nil
}
