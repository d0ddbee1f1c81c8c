package store

import (
	"github.com/google/uuid"
	"github.com/storecraft/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeStore    = "Store"
	AggregateTypeCustomer = "Customer"
)

// Event type constants
const (
	EventTypeStoreThemeActivated = "StoreThemeActivated"
	EventTypeCustomerRegistered  = "CustomerRegistered"
)

// StoreThemeActivatedEvent is published when a store flips to a new theme
type StoreThemeActivatedEvent struct {
	shared.BaseDomainEvent
	StoreID   uuid.UUID `json:"store_id"`
	StoreSlug string    `json:"store_slug"`
	ThemeID   uuid.UUID `json:"theme_id"`
}

// NewStoreThemeActivatedEvent creates a new StoreThemeActivatedEvent
func NewStoreThemeActivatedEvent(s *Store, themeID uuid.UUID) *StoreThemeActivatedEvent {
	return &StoreThemeActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStoreThemeActivated, AggregateTypeStore, s.ID),
		StoreID:         s.ID,
		StoreSlug:       s.Slug,
		ThemeID:         themeID,
	}
}

// CustomerRegisteredEvent is published when a shopper creates an account
type CustomerRegisteredEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	StoreID    uuid.UUID `json:"store_id"`
	Email      string    `json:"email"`
}

// NewCustomerRegisteredEvent creates a new CustomerRegisteredEvent
func NewCustomerRegisteredEvent(c *Customer) *CustomerRegisteredEvent {
	return &CustomerRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerRegistered, AggregateTypeCustomer, c.ID),
		CustomerID:      c.ID,
		StoreID:         c.StoreID,
		Email:           c.Email,
	}
}
