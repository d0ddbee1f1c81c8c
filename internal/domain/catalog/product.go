package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storecraft/backend/internal/domain/shared"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

// Product represents a sellable item in a store's catalog. The exported
// storefront reads these through the public live-store payload.
type Product struct {
	shared.BaseAggregateRoot
	StoreID           uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_product_store_sku,priority:1"`
	SKU               string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_store_sku,priority:2"`
	Name              string          `gorm:"type:varchar(200);not null"`
	Description       string          `gorm:"type:text"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Images            []string        `gorm:"type:jsonb;serializer:json"`
	CategoryID        *uuid.UUID      `gorm:"type:uuid;index"`
	InventoryQuantity int             `gorm:"not null;default:0"`
	Status            ProductStatus   `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new active product
func NewProduct(storeID uuid.UUID, sku, name string, price decimal.Decimal) (*Product, error) {
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Product SKU cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StoreID:           storeID,
		SKU:               sku,
		Name:              name,
		Price:             price,
		Images:            []string{},
		Status:            ProductStatusActive,
	}, nil
}

// AdjustInventory changes the on-hand quantity by delta
func (p *Product) AdjustInventory(delta int) error {
	if p.InventoryQuantity+delta < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Inventory quantity cannot go negative")
	}
	p.InventoryQuantity += delta
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// IsAvailable returns true if the product can be shown on the storefront
func (p *Product) IsAvailable() bool {
	return p.Status == ProductStatusActive
}
