package categories

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/santos/internal/entities"
)

// Repository provides read access to the seeded categories.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new categories repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns all categories ordered by id.
func (r *Repository) List(ctx context.Context) ([]entities.Category, error) {
	var categories []entities.Category
	err := r.db.WithContext(ctx).Order("id ASC").Find(&categories).Error
	return categories, err
}

// Exists reports whether a category with the given id exists.
func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Category{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
