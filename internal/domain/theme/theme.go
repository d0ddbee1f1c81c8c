package theme

import (
	"fmt"
	"strings"
	"time"

	"github.com/storecraft/backend/internal/domain/shared"
)

// MaxBuildErrorLength bounds the persisted failure cause so status payloads
// stay readable; the full output lives in the build log.
const MaxBuildErrorLength = 100

// Status represents the lifecycle state of a theme
type Status string

const (
	StatusBuilding Status = "building"
	StatusActive   Status = "active"
	StatusFailed   Status = "failed"
)

// Theme represents an uploaded storefront theme and its build lifecycle.
// The description field doubles as the human-readable progress message while
// a build is running.
type Theme struct {
	shared.BaseAggregateRoot
	Name        string `gorm:"type:varchar(100);not null"`
	Slug        string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	Status      Status `gorm:"type:varchar(20);not null;default:'building'"`
	Thumbnail   string `gorm:"type:varchar(500)"`
	BuildError  string `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (Theme) TableName() string {
	return "themes"
}

// NewTheme creates a new theme in the building state
func NewTheme(name, slug, description string) (*Theme, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}

	t := &Theme{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              strings.ToLower(slug),
		Description:       description,
		Status:            StatusBuilding,
	}

	t.AddDomainEvent(NewThemeCreatedEvent(t))

	return t, nil
}

// UpdateMetadata updates the theme's display information
func (t *Theme) UpdateMetadata(name, description string) error {
	if err := validateName(name); err != nil {
		return err
	}

	t.Name = name
	t.Description = description
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// SetThumbnail records the stored thumbnail path
func (t *Theme) SetThumbnail(path string) {
	t.Thumbnail = path
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}

// MarkBuilding transitions the theme into the building state and records the
// current progress message in the description, e.g. "Installing (50%)".
func (t *Theme) MarkBuilding(message string, progress int) {
	t.Status = StatusBuilding
	t.Description = fmt.Sprintf("%s (%d%%)", message, progress)
	t.BuildError = ""
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}

// MarkActive transitions the theme into the active state after a successful build
func (t *Theme) MarkActive(description string) {
	t.Status = StatusActive
	t.Description = description
	t.BuildError = ""
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewThemeBuildCompletedEvent(t))
}

// MarkFailed transitions the theme into the failed state with a truncated cause
func (t *Theme) MarkFailed(cause string) {
	t.Status = StatusFailed
	t.BuildError = TruncateError(cause)
	t.Description = "Build failed: " + t.BuildError
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewThemeBuildFailedEvent(t, cause))
}

// IsActive returns true if the theme built successfully
func (t *Theme) IsActive() bool {
	return t.Status == StatusActive
}

// IsBuilding returns true while a build is in flight
func (t *Theme) IsBuilding() bool {
	return t.Status == StatusBuilding
}

// TruncateError bounds an error message to MaxBuildErrorLength runes
func TruncateError(cause string) string {
	runes := []rune(cause)
	if len(runes) <= MaxBuildErrorLength {
		return cause
	}
	return string(runes[:MaxBuildErrorLength])
}

// ValidateSlug validates a theme or store slug. Slugs become path segments
// under the upload root, so only letters, digits, hyphens and underscores
// are allowed; constructors lowercase them before persisting.
func ValidateSlug(slug string) error {
	if slug == "" {
		return shared.NewDomainError("INVALID_SLUG", "Slug cannot be empty")
	}
	if len(slug) > 100 {
		return shared.NewDomainError("INVALID_SLUG", "Slug cannot exceed 100 characters")
	}
	for _, r := range slug {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_') {
			return shared.NewDomainError("INVALID_SLUG", "Slug can only contain letters, numbers, hyphens, and underscores")
		}
	}
	return nil
}

// validateName validates the theme name
func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Theme name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Theme name cannot exceed 100 characters")
	}
	return nil
}
