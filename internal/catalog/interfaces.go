package catalog

import (
	"context"

	"github.com/mrlokans/santos/internal/entities"
)

// SaintReader provides read-only access to saints.
type SaintReader interface {
	List(ctx context.Context) ([]entities.Saint, error)
	ListByCategory(ctx context.Context, categoryID uint) ([]entities.Saint, error)
	Search(ctx context.Context, term string) ([]entities.Saint, error)
	GetByID(ctx context.Context, id uint) (*entities.Saint, error)
	Exists(ctx context.Context, id uint) (bool, error)
}

// SaintWriter persists saints together with their child collections.
type SaintWriter interface {
	Create(ctx context.Context, saint *entities.Saint) error
	CreateBatch(ctx context.Context, saints []entities.Saint) (int, error)
	Replace(ctx context.Context, saint *entities.Saint) error
	Delete(ctx context.Context, id uint) error
}

// SaintStore combines read and write access.
type SaintStore interface {
	SaintReader
	SaintWriter
}

// CategoryStore provides access to the seeded categories.
type CategoryStore interface {
	List(ctx context.Context) ([]entities.Category, error)
	Exists(ctx context.Context, id uint) (bool, error)
}
