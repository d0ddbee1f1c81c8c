package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/storecraft/backend/internal/domain/store"
)

// CreateStoreRequest creates a new storefront
type CreateStoreRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// UpdateStoreRequest updates storefront branding
type UpdateStoreRequest struct {
	Name        string `json:"name"`
	Tagline     string `json:"tagline"`
	Logo        string `json:"logo"`
	Currency    string `json:"currency"`
	ContactInfo string `json:"contact_info"`
}

// ApplyThemeRequest activates a built theme for a store
type ApplyThemeRequest struct {
	ThemeSlug string `json:"theme_slug" binding:"required"`
}

// StoreResponse is the API representation of a store
type StoreResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Status      string     `json:"status"`
	ThemeID     *uuid.UUID `json:"theme_id,omitempty"`
	Tagline     string     `json:"tagline,omitempty"`
	Logo        string     `json:"logo,omitempty"`
	Currency    string     `json:"currency,omitempty"`
	ContactInfo string     `json:"contact_info,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ActivationAcceptedResponse acknowledges a dispatched theme activation
type ActivationAcceptedResponse struct {
	StoreSlug string `json:"store_slug"`
	ThemeSlug string `json:"theme_slug"`
	Status    string `json:"status"`
}

// ToStoreResponse maps a store aggregate to its API representation
func ToStoreResponse(s *store.Store) *StoreResponse {
	return &StoreResponse{
		ID:          s.ID,
		Name:        s.Name,
		Slug:        s.Slug,
		Status:      string(s.Status),
		ThemeID:     s.Config.ThemeID,
		Tagline:     s.Config.Tagline,
		Logo:        s.Config.Logo,
		Currency:    s.Config.Currency,
		ContactInfo: s.Config.ContactInfo,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
