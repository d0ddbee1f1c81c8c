package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storecraft/backend/internal/domain/shared"
	"github.com/storecraft/backend/internal/domain/store"
)

// GormCustomerRepository implements store.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.Customer, error) {
	var c store.Customer
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindByEmail finds a customer by email within a store
func (r *GormCustomerRepository) FindByEmail(ctx context.Context, storeID uuid.UUID, email string) (*store.Customer, error) {
	var c store.Customer
	err := r.db.WithContext(ctx).
		First(&c, "store_id = ? AND email = ?", storeID, normalizeEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ExistsByEmail reports whether a customer with the email exists in the store
func (r *GormCustomerRepository) ExistsByEmail(ctx context.Context, storeID uuid.UUID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&store.Customer{}).
		Where("store_id = ? AND email = ?", storeID, normalizeEmail(email)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, c *store.Customer) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
