package http

import (
	"context"

	"github.com/mrlokans/santos/internal/entities"
)

// Each controller depends on the narrow interface it needs, so tests can
// substitute fakes without a database.

// Catalog is the saint catalog as seen by the HTTP layer.
type Catalog interface {
	ListAll(ctx context.Context) ([]entities.Saint, error)
	GetByID(ctx context.Context, id uint) (*entities.Saint, error)
	ListByCategory(ctx context.Context, categoryID uint) ([]entities.Saint, error)
	Search(ctx context.Context, term string) ([]entities.Saint, error)
	CreateBatch(ctx context.Context, batch []entities.Saint) (int, error)
	Create(ctx context.Context, saint *entities.Saint) (*entities.Saint, error)
	Update(ctx context.Context, id uint, saint *entities.Saint) error
	Delete(ctx context.Context, id uint) error
	ListCategories(ctx context.Context) ([]entities.Category, error)
}

// SaintAuditor records catalog writes.
type SaintAuditor interface {
	LogSaint(userEmail string, eventType entities.AuditEventType, saintID uint, saintName string, err error)
	LogImport(userEmail, source string, count int, err error)
}

// AuditReader lists recorded audit events.
type AuditReader interface {
	GetEvents(ctx context.Context, eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// WriteCounter counts persisted saint writes.
type WriteCounter interface {
	AddSaintWrites(operation string, n int)
}
