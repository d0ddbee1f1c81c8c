package store

import (
	"context"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storecraft/backend/internal/domain/shared"
	"github.com/storecraft/backend/internal/domain/store"
	"github.com/storecraft/backend/internal/infrastructure/pipeline"
)

// StoreService handles storefront management operations
type StoreService struct {
	stores    store.Repository
	workspace *pipeline.Workspace
	logger    *zap.Logger
}

// NewStoreService creates a new StoreService
func NewStoreService(stores store.Repository, workspace *pipeline.Workspace, logger *zap.Logger) *StoreService {
	return &StoreService{
		stores:    stores,
		workspace: workspace,
		logger:    logger.Named("store-service"),
	}
}

// Create creates a new store
func (s *StoreService) Create(ctx context.Context, req CreateStoreRequest) (*StoreResponse, error) {
	slug := strings.ToLower(req.Slug)

	if _, err := s.stores.FindBySlug(ctx, slug); err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Store with this slug already exists")
	}

	st, err := store.NewStore(req.Name, slug)
	if err != nil {
		return nil, err
	}

	if err := s.stores.Save(ctx, st); err != nil {
		return nil, err
	}
	return ToStoreResponse(st), nil
}

// List retrieves stores with pagination
func (s *StoreService) List(ctx context.Context, filter shared.Filter) ([]StoreResponse, error) {
	if filter.Page <= 0 || filter.PageSize <= 0 {
		defaults := shared.DefaultFilter()
		if filter.Page <= 0 {
			filter.Page = defaults.Page
		}
		if filter.PageSize <= 0 {
			filter.PageSize = defaults.PageSize
		}
	}

	stores, err := s.stores.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]StoreResponse, len(stores))
	for i := range stores {
		responses[i] = *ToStoreResponse(&stores[i])
	}
	return responses, nil
}

// GetBySlug retrieves a store by slug
func (s *StoreService) GetBySlug(ctx context.Context, slug string) (*StoreResponse, error) {
	st, err := s.stores.FindBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return nil, err
	}
	return ToStoreResponse(st), nil
}

// Update updates a store's branding
func (s *StoreService) Update(ctx context.Context, id uuid.UUID, req UpdateStoreRequest) (*StoreResponse, error) {
	st, err := s.stores.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = st.Name
	}
	if err := st.UpdateBranding(name, req.Tagline, req.Logo); err != nil {
		return nil, err
	}
	if req.Currency != "" {
		st.Config.Currency = req.Currency
	}
	if req.ContactInfo != "" {
		st.Config.ContactInfo = req.ContactInfo
	}

	if err := s.stores.Save(ctx, st); err != nil {
		return nil, err
	}
	return ToStoreResponse(st), nil
}

// Delete removes a store and its deployed working tree
func (s *StoreService) Delete(ctx context.Context, id uuid.UUID) error {
	st, err := s.stores.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.stores.Delete(ctx, id); err != nil {
		return err
	}

	if err := os.RemoveAll(s.workspace.StoreDir(st.Slug)); err != nil {
		s.logger.Warn("Failed to remove store working tree",
			zap.String("slug", st.Slug), zap.Error(err))
	}
	return nil
}
