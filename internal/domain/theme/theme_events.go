package theme

import (
	"github.com/google/uuid"
	"github.com/storecraft/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeTheme = "Theme"

// Event type constants
const (
	EventTypeThemeCreated        = "ThemeCreated"
	EventTypeThemeBuildCompleted = "ThemeBuildCompleted"
	EventTypeThemeBuildFailed    = "ThemeBuildFailed"
	EventTypeThemeDeleted        = "ThemeDeleted"
)

// ThemeCreatedEvent is published when a new theme is uploaded
type ThemeCreatedEvent struct {
	shared.BaseDomainEvent
	ThemeID uuid.UUID `json:"theme_id"`
	Slug    string    `json:"slug"`
	Name    string    `json:"name"`
}

// NewThemeCreatedEvent creates a new ThemeCreatedEvent
func NewThemeCreatedEvent(t *Theme) *ThemeCreatedEvent {
	return &ThemeCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeThemeCreated, AggregateTypeTheme, t.ID),
		ThemeID:         t.ID,
		Slug:            t.Slug,
		Name:            t.Name,
	}
}

// ThemeBuildCompletedEvent is published when a build produces a servable export
type ThemeBuildCompletedEvent struct {
	shared.BaseDomainEvent
	ThemeID uuid.UUID `json:"theme_id"`
	Slug    string    `json:"slug"`
}

// NewThemeBuildCompletedEvent creates a new ThemeBuildCompletedEvent
func NewThemeBuildCompletedEvent(t *Theme) *ThemeBuildCompletedEvent {
	return &ThemeBuildCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeThemeBuildCompleted, AggregateTypeTheme, t.ID),
		ThemeID:         t.ID,
		Slug:            t.Slug,
	}
}

// ThemeBuildFailedEvent is published when a build exhausts its retries
type ThemeBuildFailedEvent struct {
	shared.BaseDomainEvent
	ThemeID uuid.UUID `json:"theme_id"`
	Slug    string    `json:"slug"`
	Cause   string    `json:"cause"`
}

// NewThemeBuildFailedEvent creates a new ThemeBuildFailedEvent
func NewThemeBuildFailedEvent(t *Theme, cause string) *ThemeBuildFailedEvent {
	return &ThemeBuildFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeThemeBuildFailed, AggregateTypeTheme, t.ID),
		ThemeID:         t.ID,
		Slug:            t.Slug,
		Cause:           cause,
	}
}
