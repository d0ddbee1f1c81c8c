package theme

import (
	"context"

	"github.com/google/uuid"
	"github.com/storecraft/backend/internal/domain/shared"
)

// Repository defines persistence operations for themes
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Theme, error)
	FindBySlug(ctx context.Context, slug string) (*Theme, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Theme, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	Save(ctx context.Context, t *Theme) error
	Delete(ctx context.Context, id uuid.UUID) error
}
