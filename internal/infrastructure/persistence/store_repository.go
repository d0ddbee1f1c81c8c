package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storecraft/backend/internal/domain/shared"
	"github.com/storecraft/backend/internal/domain/store"
)

// GormStoreRepository implements store.Repository using GORM
type GormStoreRepository struct {
	db *gorm.DB
}

// NewGormStoreRepository creates a new GormStoreRepository
func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// FindByID finds a store by its ID
func (r *GormStoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.Store, error) {
	var s store.Store
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindBySlug finds a store by its slug
func (r *GormStoreRepository) FindBySlug(ctx context.Context, slug string) (*store.Store, error) {
	var s store.Store
	if err := r.db.WithContext(ctx).First(&s, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindAll finds all stores matching the filter
func (r *GormStoreRepository) FindAll(ctx context.Context, filter shared.Filter) ([]store.Store, error) {
	var stores []store.Store
	query := applyFilter(r.db.WithContext(ctx).Model(&store.Store{}), filter)
	if err := query.Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// CountUsingTheme counts stores whose active theme is the given theme
func (r *GormStoreRepository) CountUsingTheme(ctx context.Context, themeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&store.Store{}).
		Where("config->>'theme_id' = ?", themeID.String()).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a store
func (r *GormStoreRepository) Save(ctx context.Context, s *store.Store) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// Delete removes a store by ID
func (r *GormStoreRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&store.Store{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
