package store

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/storecraft/backend/internal/domain/shared"
	"github.com/storecraft/backend/internal/domain/store"
	"github.com/storecraft/backend/internal/domain/theme"
	"github.com/storecraft/backend/internal/infrastructure/pipeline"
)

// DeployPipeline runs store activations and exposes deployment status
type DeployPipeline interface {
	ActivateForStore(ctx context.Context, storeSlug, themeSlug, storeName, themeName string) (*pipeline.BuildResult, error)
	Tracker() *pipeline.StatusTracker
}

// ActivationService orchestrates theme activation for stores. Activations run
// in the background; callers poll Status for progress.
type ActivationService struct {
	stores   store.Repository
	themes   theme.Repository
	pipeline DeployPipeline
	logger   *zap.Logger
}

// NewActivationService creates a new ActivationService
func NewActivationService(
	stores store.Repository,
	themes theme.Repository,
	deployPipeline DeployPipeline,
	logger *zap.Logger,
) *ActivationService {
	return &ActivationService{
		stores:   stores,
		themes:   themes,
		pipeline: deployPipeline,
		logger:   logger.Named("activation-service"),
	}
}

// Apply dispatches a background activation of a built theme for a store.
// Only themes that built successfully can be activated.
func (s *ActivationService) Apply(ctx context.Context, storeSlug string, req ApplyThemeRequest) (*ActivationAcceptedResponse, error) {
	st, err := s.stores.FindBySlug(ctx, strings.ToLower(storeSlug))
	if err != nil {
		return nil, err
	}

	th, err := s.themes.FindBySlug(ctx, strings.ToLower(req.ThemeSlug))
	if err != nil {
		return nil, err
	}
	if !th.IsActive() {
		return nil, shared.NewDomainError("THEME_NOT_BUILT", "Theme has not built successfully yet")
	}

	s.pipeline.Tracker().Update(st.Slug, 5, "Queued for deployment...", pipeline.StatusProcessing)

	go s.runActivation(st.Slug, st.Name, th)

	return &ActivationAcceptedResponse{
		StoreSlug: st.Slug,
		ThemeSlug: th.Slug,
		Status:    pipeline.StatusProcessing,
	}, nil
}

// runActivation drives a background store activation and records the theme
// reference in the store's config once the build is live.
func (s *ActivationService) runActivation(storeSlug, storeName string, th *theme.Theme) {
	ctx := context.Background()

	if _, err := s.pipeline.ActivateForStore(ctx, storeSlug, th.Slug, storeName, th.Name); err != nil {
		s.logger.Error("Store activation failed",
			zap.String("store", storeSlug),
			zap.String("theme", th.Slug),
			zap.Error(err))
		return
	}

	st, err := s.stores.FindBySlug(ctx, storeSlug)
	if err != nil {
		s.logger.Error("Store vanished during activation", zap.String("store", storeSlug), zap.Error(err))
		return
	}
	st.ActivateTheme(th.ID)
	if err := s.stores.Save(ctx, st); err != nil {
		s.logger.Error("Failed to record activated theme",
			zap.String("store", storeSlug), zap.Error(err))
	}
}

// Status returns the current deployment status for a store
func (s *ActivationService) Status(storeSlug string) pipeline.DeployStatus {
	return s.pipeline.Tracker().Get(strings.ToLower(storeSlug))
}
