package theme

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/storecraft/backend/internal/domain/theme"
)

// UploadThemeRequest carries the multipart fields of a theme upload. Uploading
// an existing slug replaces the archive and triggers a rebuild.
type UploadThemeRequest struct {
	Name         string
	Slug         string
	Description  string
	Archive      io.Reader
	Thumbnail    io.Reader
	ThumbnailExt string
}

// UpdateThemeRequest updates theme display metadata
type UpdateThemeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ThemeResponse is the API representation of a theme
type ThemeResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	BuildError  string    `json:"build_error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BuildLogResponse carries the tail of a theme's build log
type BuildLogResponse struct {
	Slug string `json:"slug"`
	Log  string `json:"log"`
}

// ToThemeResponse maps a theme aggregate to its API representation
func ToThemeResponse(t *theme.Theme) *ThemeResponse {
	return &ThemeResponse{
		ID:          t.ID,
		Name:        t.Name,
		Slug:        t.Slug,
		Description: t.Description,
		Status:      string(t.Status),
		Thumbnail:   t.Thumbnail,
		BuildError:  t.BuildError,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
