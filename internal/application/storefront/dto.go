package storefront

import (
	"time"

	"github.com/google/uuid"

	"github.com/storecraft/backend/internal/domain/catalog"
	"github.com/storecraft/backend/internal/domain/store"
)

// RegisterRequest registers a new customer for a store
type RegisterRequest struct {
	StoreID  uuid.UUID `json:"store_id" binding:"required"`
	Email    string    `json:"email" binding:"required,email"`
	Name     string    `json:"name" binding:"required"`
	Password string    `json:"password" binding:"required,min=8"`
}

// LoginRequest authenticates a customer against a store
type LoginRequest struct {
	StoreID  uuid.UUID `json:"store_id" binding:"required"`
	Email    string    `json:"email" binding:"required,email"`
	Password string    `json:"password" binding:"required"`
}

// CustomerResponse is the API representation of a customer. The role lets
// the deployed storefront's login flow bounce operator accounts to the
// management console.
type CustomerResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// AuthResponse carries a session token plus the customer it belongs to
type AuthResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Customer  CustomerResponse `json:"customer"`
}

// LiveStoreInfo is the public shape of a store in the live payload
type LiveStoreInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Tagline     string    `json:"tagline,omitempty"`
	Logo        string    `json:"logo,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	ContactInfo string    `json:"contact_info,omitempty"`
}

// LiveThemeInfo identifies the theme serving a live store
type LiveThemeInfo struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// LiveProduct is the public shape of a product in the live payload. Price is
// serialized as a string so themes never lose cents to float rounding.
type LiveProduct struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	Price             string     `json:"price"`
	Images            []string   `json:"images"`
	SKU               string     `json:"sku"`
	InventoryQuantity int        `json:"inventoryQuantity"`
	CategoryID        *uuid.UUID `json:"category_id,omitempty"`
}

// LiveCategory is the public shape of a category in the live payload
type LiveCategory struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// LiveStoreResponse is the payload the injected theme client consumes
type LiveStoreResponse struct {
	Store      LiveStoreInfo  `json:"store"`
	Theme      *LiveThemeInfo `json:"theme,omitempty"`
	Products   []LiveProduct  `json:"products"`
	Categories []LiveCategory `json:"categories"`
}

// ToCustomerResponse maps a customer aggregate to its API representation
func ToCustomerResponse(c *store.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		Email:       c.Email,
		Name:        c.Name,
		Role:        c.Role,
		LastLoginAt: c.LastLoginAt,
	}
}

// ToLiveProduct maps a product aggregate to its public representation
func ToLiveProduct(p *catalog.Product) LiveProduct {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return LiveProduct{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price.StringFixed(2),
		Images:            images,
		SKU:               p.SKU,
		InventoryQuantity: p.InventoryQuantity,
		CategoryID:        p.CategoryID,
	}
}
