package theme

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storecraft/backend/internal/domain/shared"
	storedomain "github.com/storecraft/backend/internal/domain/store"
	"github.com/storecraft/backend/internal/domain/theme"
	"github.com/storecraft/backend/internal/infrastructure/pipeline"
)

// buildLogTailLines is how many build log lines the log endpoint returns
const buildLogTailLines = 500

// ThemeBuilder runs the build chain for an uploaded theme archive
type ThemeBuilder interface {
	BuildTheme(ctx context.Context, slug string, progress pipeline.ProgressFunc) (*pipeline.BuildResult, error)
}

// ThemeService handles theme lifecycle operations: upload, background build,
// metadata updates and deletion.
type ThemeService struct {
	themes    theme.Repository
	stores    storedomain.Repository
	builder   ThemeBuilder
	workspace *pipeline.Workspace
	logger    *zap.Logger
}

// NewThemeService creates a new ThemeService
func NewThemeService(
	themes theme.Repository,
	stores storedomain.Repository,
	builder ThemeBuilder,
	workspace *pipeline.Workspace,
	logger *zap.Logger,
) *ThemeService {
	return &ThemeService{
		themes:    themes,
		stores:    stores,
		builder:   builder,
		workspace: workspace,
		logger:    logger.Named("theme-service"),
	}
}

// Upload persists an uploaded theme archive and dispatches a background build.
// Re-uploading an existing slug replaces the archive and rebuilds; uploads are
// rejected while a build for the slug is in flight.
func (s *ThemeService) Upload(ctx context.Context, req UploadThemeRequest) (*ThemeResponse, error) {
	if req.Archive == nil {
		return nil, shared.NewDomainError("MISSING_ARCHIVE", "A build archive is required")
	}

	slug := strings.ToLower(req.Slug)

	th, err := s.themes.FindBySlug(ctx, slug)
	switch {
	case err == nil:
		if th.IsBuilding() {
			return nil, shared.ErrBuildInProgress
		}
		if req.Name != "" {
			if err := th.UpdateMetadata(req.Name, th.Description); err != nil {
				return nil, err
			}
		}
	case errors.Is(err, shared.ErrNotFound):
		th, err = theme.NewTheme(req.Name, slug, req.Description)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := writeUpload(s.workspace.ThemeZipPath(th.Slug), req.Archive); err != nil {
		return nil, fmt.Errorf("failed to store theme archive: %w", err)
	}

	if req.Thumbnail != nil {
		ext := strings.TrimPrefix(req.ThumbnailExt, ".")
		if ext == "" {
			ext = "png"
		}
		if err := writeUpload(s.workspace.ThumbnailPath(th.Slug, ext), req.Thumbnail); err != nil {
			return nil, fmt.Errorf("failed to store thumbnail: %w", err)
		}
		th.SetThumbnail("/uploads/themes/" + th.Slug + "_thumb." + ext)
	}

	th.MarkBuilding("Queued for build", 0)
	if err := s.themes.Save(ctx, th); err != nil {
		return nil, err
	}

	go s.runBuild(th.ID, th.Slug)

	return ToThemeResponse(th), nil
}

// runBuild drives a background theme build, mirroring progress checkpoints
// into the theme's description so the catalog UI can poll the theme record.
func (s *ThemeService) runBuild(themeID uuid.UUID, slug string) {
	ctx := context.Background()

	progress := func(message string, pct int) {
		th, err := s.themes.FindByID(ctx, themeID)
		if err != nil {
			s.logger.Warn("Failed to load theme for progress update",
				zap.String("slug", slug), zap.Error(err))
			return
		}
		th.MarkBuilding(message, pct)
		if err := s.themes.Save(ctx, th); err != nil {
			s.logger.Warn("Failed to persist build progress",
				zap.String("slug", slug), zap.Error(err))
		}
	}

	_, buildErr := s.builder.BuildTheme(ctx, slug, progress)

	th, err := s.themes.FindByID(ctx, themeID)
	if err != nil {
		s.logger.Error("Theme vanished during build", zap.String("slug", slug), zap.Error(err))
		return
	}

	if buildErr != nil {
		th.MarkFailed(buildErr.Error())
		s.logger.Error("Theme build failed", zap.String("slug", slug), zap.Error(buildErr))
	} else {
		th.MarkActive(fmt.Sprintf("AI Optimized & Live (Last Build: %s)", time.Now().Format("15:04")))
	}

	if err := s.themes.Save(ctx, th); err != nil {
		s.logger.Error("Failed to persist build outcome", zap.String("slug", slug), zap.Error(err))
	}
}

// List retrieves themes with pagination
func (s *ThemeService) List(ctx context.Context, filter shared.Filter) (shared.Paginated[ThemeResponse], error) {
	if filter.Page <= 0 || filter.PageSize <= 0 {
		defaults := shared.DefaultFilter()
		if filter.Page <= 0 {
			filter.Page = defaults.Page
		}
		if filter.PageSize <= 0 {
			filter.PageSize = defaults.PageSize
		}
	}

	themes, err := s.themes.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ThemeResponse]{}, err
	}

	total, err := s.themes.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[ThemeResponse]{}, err
	}

	responses := make([]ThemeResponse, len(themes))
	for i := range themes {
		responses[i] = *ToThemeResponse(&themes[i])
	}

	return shared.NewPaginated(responses, total, filter.Page, filter.PageSize), nil
}

// GetBySlug retrieves a theme by slug
func (s *ThemeService) GetBySlug(ctx context.Context, slug string) (*ThemeResponse, error) {
	th, err := s.themes.FindBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return nil, err
	}
	return ToThemeResponse(th), nil
}

// Update updates a theme's display metadata
func (s *ThemeService) Update(ctx context.Context, id uuid.UUID, req UpdateThemeRequest) (*ThemeResponse, error) {
	th, err := s.themes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = th.Name
	}
	description := req.Description
	if description == "" {
		description = th.Description
	}
	if err := th.UpdateMetadata(name, description); err != nil {
		return nil, err
	}

	if err := s.themes.Save(ctx, th); err != nil {
		return nil, err
	}
	return ToThemeResponse(th), nil
}

// Delete removes a theme and its workspace artifacts. Deletion is refused
// while any store's config still references the theme.
func (s *ThemeService) Delete(ctx context.Context, id uuid.UUID) error {
	th, err := s.themes.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if th.IsBuilding() {
		return shared.ErrBuildInProgress
	}

	inUse, err := s.stores.CountUsingTheme(ctx, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return shared.ErrThemeInUse
	}

	if err := s.themes.Delete(ctx, id); err != nil {
		return err
	}

	s.removeArtifacts(th)
	return nil
}

// Logs returns the tail of a theme's build log
func (s *ThemeService) Logs(ctx context.Context, slug string) (*BuildLogResponse, error) {
	slug = strings.ToLower(slug)
	if _, err := s.themes.FindBySlug(ctx, slug); err != nil {
		return nil, err
	}

	logPath := s.workspace.BuildLogPath(s.workspace.ThemeDir(slug))
	tail, err := pipeline.ReadLogTail(logPath, buildLogTailLines)
	if err != nil {
		return nil, err
	}

	return &BuildLogResponse{Slug: slug, Log: tail}, nil
}

// removeArtifacts deletes the working tree, archive and thumbnail of a theme
func (s *ThemeService) removeArtifacts(th *theme.Theme) {
	targets := []string{
		s.workspace.ThemeDir(th.Slug),
		s.workspace.ThemeZipPath(th.Slug),
	}
	if th.Thumbnail != "" {
		if rel, ok := strings.CutPrefix(th.Thumbnail, "/uploads/"); ok {
			targets = append(targets, filepath.Join(s.workspace.Root(), filepath.FromSlash(rel)))
		}
	}

	for _, target := range targets {
		if err := os.RemoveAll(target); err != nil {
			s.logger.Warn("Failed to remove theme artifact",
				zap.String("path", target), zap.Error(err))
		}
	}
}

func writeUpload(path string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return dst.Close()
}
