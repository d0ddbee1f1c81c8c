package catalog

import (
	"github.com/google/uuid"
	"github.com/storecraft/backend/internal/domain/shared"
)

// Category groups products for storefront navigation
type Category struct {
	shared.BaseAggregateRoot
	StoreID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(100);not null"`
	SortOrder int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a new category
func NewCategory(storeID uuid.UUID, name string) (*Category, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	return &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StoreID:           storeID,
		Name:              name,
	}, nil
}
