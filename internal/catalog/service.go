// Package catalog implements the saint catalog: listing, search and
// the write paths that keep every saint categorized, illustrated and with
// a complete gallery.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrlokans/santos/internal/database/saints"
	"github.com/mrlokans/santos/internal/entities"
)

var (
	ErrEmptyBatch      = errors.New("batch must contain at least one saint")
	ErrIDMismatch      = errors.New("path id does not match body id")
	ErrSaintNotFound   = errors.New("saint not found")
	ErrUnknownCategory = errors.New("unknown category")
)

// Service handles catalog business logic on top of the stores.
type Service struct {
	saints     SaintStore
	categories CategoryStore
}

// NewService creates a new catalog Service.
func NewService(saints SaintStore, categories CategoryStore) *Service {
	return &Service{
		saints:     saints,
		categories: categories,
	}
}

// ListAll returns every saint with its category, ordered by id.
func (s *Service) ListAll(ctx context.Context) ([]entities.Saint, error) {
	list, err := s.saints.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list saints: %w", err)
	}
	return list, nil
}

// GetByID returns a fully expanded saint.
func (s *Service) GetByID(ctx context.Context, id uint) (*entities.Saint, error) {
	saint, err := s.saints.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return saint, nil
}

func (s *Service) ListByCategory(ctx context.Context, categoryID uint) ([]entities.Saint, error) {
	list, err := s.saints.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saints for category %d: %w", categoryID, err)
	}
	return list, nil
}

// Search matches term against name and history, ignoring case.
func (s *Service) Search(ctx context.Context, term string) ([]entities.Saint, error) {
	list, err := s.saints.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search saints: %w", err)
	}
	return list, nil
}

// CreateBatch normalizes and inserts all saints atomically.
func (s *Service) CreateBatch(ctx context.Context, batch []entities.Saint) (int, error) {
	if len(batch) == 0 {
		return 0, ErrEmptyBatch
	}

	for i := range batch {
		batch[i].ID = 0
		Normalize(&batch[i])
		if err := s.checkCategory(ctx, batch[i].CategoryID); err != nil {
			return 0, err
		}
	}

	count, err := s.saints.CreateBatch(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("failed to insert batch: %w", err)
	}
	return count, nil
}

// Create normalizes and inserts one saint, returning it as stored.
func (s *Service) Create(ctx context.Context, saint *entities.Saint) (*entities.Saint, error) {
	saint.ID = 0
	Normalize(saint)
	if err := s.checkCategory(ctx, saint.CategoryID); err != nil {
		return nil, err
	}

	if err := s.saints.Create(ctx, saint); err != nil {
		return nil, fmt.Errorf("failed to create saint: %w", err)
	}
	return s.GetByID(ctx, saint.ID)
}

// Update replaces a saint and all of its child collections. Scalars are
// stored as sent apart from the photo and category fallbacks.
func (s *Service) Update(ctx context.Context, id uint, saint *entities.Saint) error {
	if saint.ID != id {
		return ErrIDMismatch
	}

	exists, err := s.saints.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up saint %d: %w", id, err)
	}
	if !exists {
		return ErrSaintNotFound
	}

	NormalizeReplacement(saint)
	if err := s.checkCategory(ctx, saint.CategoryID); err != nil {
		return err
	}

	if err := s.saints.Replace(ctx, saint); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// Delete removes a saint and everything it owns.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.saints.Delete(ctx, id); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// ListCategories returns the seeded categories ordered by id.
func (s *Service) ListCategories(ctx context.Context) ([]entities.Category, error) {
	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return list, nil
}

func (s *Service) checkCategory(ctx context.Context, id uint) error {
	ok, err := s.categories.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check category %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCategory, id)
	}
	return nil
}

func mapStoreError(err error) error {
	if errors.Is(err, saints.ErrNotFound) {
		return ErrSaintNotFound
	}
	return err
}
