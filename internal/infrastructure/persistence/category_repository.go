package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storecraft/backend/internal/domain/catalog"
	"github.com/storecraft/backend/internal/domain/shared"
)

// GormCategoryRepository implements catalog.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByStore finds the categories for a store ordered for navigation
func (r *GormCategoryRepository) FindByStore(ctx context.Context, storeID uuid.UUID) ([]catalog.Category, error) {
	var categories []catalog.Category
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// FindByStoreAndName finds a category by its name within a store, matched
// case-insensitively
func (r *GormCategoryRepository) FindByStoreAndName(ctx context.Context, storeID uuid.UUID, name string) (*catalog.Category, error) {
	var c catalog.Category
	err := r.db.WithContext(ctx).
		First(&c, "store_id = ? AND LOWER(name) = LOWER(?)", storeID, name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, c *catalog.Category) error {
	return r.db.WithContext(ctx).Save(c).Error
}
