package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storecraft/backend/internal/domain/shared"
	"github.com/storecraft/backend/internal/domain/theme"
)

// GormThemeRepository implements theme.Repository using GORM
type GormThemeRepository struct {
	db *gorm.DB
}

// NewGormThemeRepository creates a new GormThemeRepository
func NewGormThemeRepository(db *gorm.DB) *GormThemeRepository {
	return &GormThemeRepository{db: db}
}

// FindByID finds a theme by its ID
func (r *GormThemeRepository) FindByID(ctx context.Context, id uuid.UUID) (*theme.Theme, error) {
	var t theme.Theme
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindBySlug finds a theme by its slug
func (r *GormThemeRepository) FindBySlug(ctx context.Context, slug string) (*theme.Theme, error) {
	var t theme.Theme
	if err := r.db.WithContext(ctx).First(&t, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindAll finds all themes matching the filter
func (r *GormThemeRepository) FindAll(ctx context.Context, filter shared.Filter) ([]theme.Theme, error) {
	var themes []theme.Theme
	query := applyFilter(r.db.WithContext(ctx).Model(&theme.Theme{}), filter)
	if err := query.Find(&themes).Error; err != nil {
		return nil, err
	}
	return themes, nil
}

// Count counts themes matching the filter
func (r *GormThemeRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&theme.Theme{})
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsBySlug reports whether a theme with the slug exists
func (r *GormThemeRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&theme.Theme{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a theme
func (r *GormThemeRepository) Save(ctx context.Context, t *theme.Theme) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// Delete removes a theme by ID
func (r *GormThemeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&theme.Theme{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// allowedSortColumns guards ORDER BY against injection
var allowedSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"slug":       true,
	"status":     true,
	"price":      true,
	"sort_order": true,
}

// applyFilter applies pagination, ordering and search to a query
func applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}

	orderBy := filter.OrderBy
	if !allowedSortColumns[orderBy] {
		orderBy = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(filter.OrderDir, "asc") {
		dir = "ASC"
	}
	query = query.Order(fmt.Sprintf("%s %s", orderBy, dir))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}
	return query
}
