package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByStoreAndSKU(ctx context.Context, storeID uuid.UUID, sku string) (*Product, error)
	FindAvailableByStore(ctx context.Context, storeID uuid.UUID) ([]Product, error)
	Save(ctx context.Context, p *Product) error
}

// CategoryRepository defines persistence operations for categories
type CategoryRepository interface {
	FindByStore(ctx context.Context, storeID uuid.UUID) ([]Category, error)
	FindByStoreAndName(ctx context.Context, storeID uuid.UUID, name string) (*Category, error)
	Save(ctx context.Context, c *Category) error
}
