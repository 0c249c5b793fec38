// Package saints provides database operations for saints and the child
// collections they own (miracles, places, gallery images).
//
// # Usage
//
//	repo := saints.NewRepository(db)
//	saint, err := repo.GetByID(ctx, id)
package saints

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/santos/internal/entities"
)

// ErrNotFound is returned when no saint matches the requested id.
var ErrNotFound = errors.New("saint not found")

// Repository handles all saint database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new saints repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns every saint with its category, ordered by id.
func (r *Repository) List(ctx context.Context) ([]entities.Saint, error) {
	var saints []entities.Saint
	err := r.db.WithContext(ctx).
		Preload("Category").
		Order("id ASC").
		Find(&saints).Error
	return saints, err
}

// ListByCategory returns the saints of one category, ordered by id.
func (r *Repository) ListByCategory(ctx context.Context, categoryID uint) ([]entities.Saint, error) {
	var saints []entities.Saint
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("category_id = ?", categoryID).
		Order("id ASC").
		Find(&saints).Error
	return saints, err
}

// Search returns saints whose name or history contains term, ignoring case.
// LIKE wildcards in term are matched literally. Both sides are folded by the
// same LOWER so letters the store cannot fold still match themselves.
func (r *Repository) Search(ctx context.Context, term string) ([]entities.Saint, error) {
	pattern := likePattern(term)

	var saints []entities.Saint
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where(`LOWER(name) LIKE LOWER(?) ESCAPE '\' OR LOWER(history) LIKE LOWER(?) ESCAPE '\'`, pattern, pattern).
		Order("id ASC").
		Find(&saints).Error
	return saints, err
}

// GetByID returns a saint with its category and all child collections.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Saint, error) {
	var saint entities.Saint
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Miracles", orderByID).
		Preload("Places", orderByID).
		Preload("Images", orderByID).
		First(&saint, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &saint, nil
}

// Create inserts a saint together with its child collections.
func (r *Repository) Create(ctx context.Context, saint *entities.Saint) error {
	return r.db.WithContext(ctx).Omit("Category").Create(saint).Error
}

// CreateBatch inserts all saints and their children in one transaction.
// Either every saint is stored or none is.
func (r *Repository) CreateBatch(ctx context.Context, saints []entities.Saint) (int, error) {
	if len(saints) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Category").Create(&saints).Error
	})
	if err != nil {
		return 0, err
	}
	return len(saints), nil
}

// Replace overwrites the scalar fields of an existing saint and swaps its
// miracles, places and images for the ones on saint. Old child rows are
// deleted, so their ids are not preserved.
func (r *Repository) Replace(ctx context.Context, saint *entities.Saint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entities.Saint
		if err := tx.Select("id").First(&existing, saint.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// A map writes zero values too; every scalar is overwritten.
		updates := map[string]any{
			"name":        saint.Name,
			"title":       saint.Title,
			"birth":       saint.Birth,
			"death":       saint.Death,
			"feast_day":   saint.FeastDay,
			"history":     saint.History,
			"photo_url":   saint.PhotoURL,
			"color":       saint.Color,
			"is_notable":  saint.IsNotable,
			"category_id": saint.CategoryID,
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return err
		}

		if err := deleteChildren(tx, saint.ID); err != nil {
			return err
		}

		for i := range saint.Miracles {
			saint.Miracles[i].ID = 0
			saint.Miracles[i].SaintID = saint.ID
		}
		for i := range saint.Places {
			saint.Places[i].ID = 0
			saint.Places[i].SaintID = saint.ID
		}
		for i := range saint.Images {
			saint.Images[i].ID = 0
			saint.Images[i].SaintID = saint.ID
		}

		if len(saint.Miracles) > 0 {
			if err := tx.Create(&saint.Miracles).Error; err != nil {
				return err
			}
		}
		if len(saint.Places) > 0 {
			if err := tx.Create(&saint.Places).Error; err != nil {
				return err
			}
		}
		if len(saint.Images) > 0 {
			if err := tx.Create(&saint.Images).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a saint and every child row it owns.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entities.Saint
		if err := tx.Select("id").First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		return tx.Delete(&entities.Saint{}, id).Error
	})
}

// Exists reports whether a saint with id is stored.
func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Saint{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Count returns the number of stored saints.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Saint{}).Count(&count).Error
	return count, err
}

func deleteChildren(tx *gorm.DB, saintID uint) error {
	if err := tx.Where("saint_id = ?", saintID).Delete(&entities.Miracle{}).Error; err != nil {
		return err
	}
	if err := tx.Where("saint_id = ?", saintID).Delete(&entities.Place{}).Error; err != nil {
		return err
	}
	return tx.Where("saint_id = ?", saintID).Delete(&entities.GalleryImage{}).Error
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
