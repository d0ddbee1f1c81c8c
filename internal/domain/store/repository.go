package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/storecraft/backend/internal/domain/shared"
)

// Repository defines persistence operations for stores
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Store, error)
	FindBySlug(ctx context.Context, slug string) (*Store, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Store, error)
	CountUsingTheme(ctx context.Context, themeID uuid.UUID) (int64, error)
	Save(ctx context.Context, s *Store) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CustomerRepository defines persistence operations for store customers
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByEmail(ctx context.Context, storeID uuid.UUID, email string) (*Customer, error)
	ExistsByEmail(ctx context.Context, storeID uuid.UUID, email string) (bool, error)
	Save(ctx context.Context, c *Customer) error
}
