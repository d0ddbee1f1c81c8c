package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storecraft/backend/internal/domain/shared"
	"github.com/storecraft/backend/internal/domain/theme"
)

// Status represents the status of a store
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Config is the store's JSON configuration blob. It carries branding shown on
// the storefront and the reference to the activated theme.
type Config struct {
	ThemeID     *uuid.UUID        `json:"theme_id,omitempty"`
	Tagline     string            `json:"tagline,omitempty"`
	Logo        string            `json:"logo,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	ContactInfo string            `json:"contact_info,omitempty"`
	Settings    map[string]string `json:"settings,omitempty"`
}

// Store represents a merchant storefront on the platform
type Store struct {
	shared.BaseAggregateRoot
	Name   string `gorm:"type:varchar(100);not null"`
	Slug   string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Status Status `gorm:"type:varchar(20);not null;default:'active'"`
	Config Config `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (Store) TableName() string {
	return "stores"
}

// NewStore creates a new store
func NewStore(name, slug string) (*Store, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Store name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Store name cannot exceed 100 characters")
	}
	if err := theme.ValidateSlug(slug); err != nil {
		return nil, err
	}

	return &Store{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              strings.ToLower(slug),
		Status:            StatusActive,
		Config:            Config{Currency: "USD"},
	}, nil
}

// ActivateTheme records the theme now serving this store's storefront
func (s *Store) ActivateTheme(themeID uuid.UUID) {
	id := themeID
	s.Config.ThemeID = &id
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	s.AddDomainEvent(NewStoreThemeActivatedEvent(s, themeID))
}

// UsesTheme returns true if the store's config references the given theme
func (s *Store) UsesTheme(themeID uuid.UUID) bool {
	return s.Config.ThemeID != nil && *s.Config.ThemeID == themeID
}

// UpdateBranding updates branding fields shown on the storefront
func (s *Store) UpdateBranding(name, tagline, logo string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Store name cannot be empty")
	}
	s.Name = name
	s.Config.Tagline = tagline
	s.Config.Logo = logo
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// IsActive returns true if the store is active
func (s *Store) IsActive() bool {
	return s.Status == StatusActive
}
