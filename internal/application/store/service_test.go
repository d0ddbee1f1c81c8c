package store

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storecraft/backend/internal/domain/shared"
	"github.com/storecraft/backend/internal/domain/store"
	"github.com/storecraft/backend/internal/domain/theme"
	"github.com/storecraft/backend/internal/infrastructure/pipeline"
)

type fakeStoreRepo struct {
	mu     sync.Mutex
	stores map[uuid.UUID]store.Store
}

func newFakeStoreRepo() *fakeStoreRepo {
	return &fakeStoreRepo{stores: make(map[uuid.UUID]store.Store)}
}

func (r *fakeStoreRepo) FindByID(_ context.Context, id uuid.UUID) (*store.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[id]; ok {
		clone := s
		return &clone, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeStoreRepo) FindBySlug(_ context.Context, slug string) (*store.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.stores {
		if s.Slug == slug {
			clone := s
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeStoreRepo) FindAll(_ context.Context, _ shared.Filter) ([]store.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]store.Store, 0, len(r.stores))
	for _, s := range r.stores {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeStoreRepo) CountUsingTheme(_ context.Context, themeID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, s := range r.stores {
		if s.UsesTheme(themeID) {
			count++
		}
	}
	return count, nil
}

func (r *fakeStoreRepo) Save(_ context.Context, s *store.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[s.ID] = *s
	return nil
}

func (r *fakeStoreRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stores[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.stores, id)
	return nil
}

type fakeThemeRepo struct {
	mu     sync.Mutex
	themes map[uuid.UUID]theme.Theme
}

func newFakeThemeRepo() *fakeThemeRepo {
	return &fakeThemeRepo{themes: make(map[uuid.UUID]theme.Theme)}
}

func (r *fakeThemeRepo) FindByID(_ context.Context, id uuid.UUID) (*theme.Theme, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.themes[id]; ok {
		clone := t
		return &clone, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeThemeRepo) FindBySlug(_ context.Context, slug string) (*theme.Theme, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.themes {
		if t.Slug == slug {
			clone := t
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeThemeRepo) FindAll(context.Context, shared.Filter) ([]theme.Theme, error) {
	return nil, nil
}

func (r *fakeThemeRepo) Count(context.Context, shared.Filter) (int64, error) { return 0, nil }

func (r *fakeThemeRepo) ExistsBySlug(context.Context, string) (bool, error) { return false, nil }

func (r *fakeThemeRepo) Save(_ context.Context, t *theme.Theme) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.themes[t.ID] = *t
	return nil
}

func (r *fakeThemeRepo) Delete(context.Context, uuid.UUID) error { return nil }

type fakeDeployPipeline struct {
	mu      sync.Mutex
	tracker *pipeline.StatusTracker
	calls   [][4]string
	err     error
}

func newFakeDeployPipeline() *fakeDeployPipeline {
	return &fakeDeployPipeline{tracker: pipeline.NewStatusTracker(time.Minute)}
}

func (p *fakeDeployPipeline) ActivateForStore(_ context.Context, storeSlug, themeSlug, storeName, themeName string) (*pipeline.BuildResult, error) {
	p.mu.Lock()
	p.calls = append(p.calls, [4]string{storeSlug, themeSlug, storeName, themeName})
	p.mu.Unlock()

	if p.err != nil {
		p.tracker.Update(storeSlug, 100, p.err.Error(), pipeline.StatusFailed)
		return nil, p.err
	}
	p.tracker.Update(storeSlug, 100, "Store is live!", pipeline.StatusCompleted)
	return &pipeline.BuildResult{OutputDir: "out", Attempts: 1}, nil
}

func (p *fakeDeployPipeline) Tracker() *pipeline.StatusTracker { return p.tracker }

func newTestWorkspace(t *testing.T) *pipeline.Workspace {
	t.Helper()
	ws, err := pipeline.NewWorkspace(t.TempDir())
	require.NoError(t, err)
	return ws
}

func TestStoreService_CRUD(t *testing.T) {
	ctx := context.Background()

	t.Run("Create normalizes slug and seeds defaults", func(t *testing.T) {
		svc := NewStoreService(newFakeStoreRepo(), newTestWorkspace(t), zap.NewNop())

		resp, err := svc.Create(ctx, CreateStoreRequest{Name: "Acme Outfitters", Slug: "Acme"})
		require.NoError(t, err)
		assert.Equal(t, "acme", resp.Slug)
		assert.Equal(t, "USD", resp.Currency)
		assert.Equal(t, string(store.StatusActive), resp.Status)
	})

	t.Run("Create rejects duplicate slugs", func(t *testing.T) {
		repo := newFakeStoreRepo()
		svc := NewStoreService(repo, newTestWorkspace(t), zap.NewNop())

		_, err := svc.Create(ctx, CreateStoreRequest{Name: "Acme", Slug: "acme"})
		require.NoError(t, err)

		_, err = svc.Create(ctx, CreateStoreRequest{Name: "Other", Slug: "acme"})
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "ALREADY_EXISTS", derr.Code)
	})

	t.Run("Update changes branding without clobbering the name", func(t *testing.T) {
		repo := newFakeStoreRepo()
		svc := NewStoreService(repo, newTestWorkspace(t), zap.NewNop())

		created, err := svc.Create(ctx, CreateStoreRequest{Name: "Acme", Slug: "acme"})
		require.NoError(t, err)

		updated, err := svc.Update(ctx, created.ID, UpdateStoreRequest{
			Tagline:  "Gear for everyone",
			Currency: "EUR",
		})
		require.NoError(t, err)
		assert.Equal(t, "Acme", updated.Name)
		assert.Equal(t, "Gear for everyone", updated.Tagline)
		assert.Equal(t, "EUR", updated.Currency)
	})

	t.Run("Delete removes the store and its working tree", func(t *testing.T) {
		repo := newFakeStoreRepo()
		ws := newTestWorkspace(t)
		svc := NewStoreService(repo, ws, zap.NewNop())

		created, err := svc.Create(ctx, CreateStoreRequest{Name: "Acme", Slug: "acme"})
		require.NoError(t, err)

		require.NoError(t, os.MkdirAll(ws.StoreDir("acme"), 0o755))
		require.NoError(t, svc.Delete(ctx, created.ID))

		_, err = repo.FindByID(ctx, created.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = os.Stat(ws.StoreDir("acme"))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestActivationService_Apply(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*fakeStoreRepo, *fakeThemeRepo, *store.Store, *theme.Theme) {
		t.Helper()
		stores := newFakeStoreRepo()
		themes := newFakeThemeRepo()

		st, err := store.NewStore("Acme", "acme")
		require.NoError(t, err)
		require.NoError(t, stores.Save(ctx, st))

		th, err := theme.NewTheme("Aurora", "aurora", "")
		require.NoError(t, err)
		th.MarkActive("ready")
		require.NoError(t, themes.Save(ctx, th))

		return stores, themes, st, th
	}

	t.Run("dispatches activation and records the theme on success", func(t *testing.T) {
		stores, themes, st, th := seed(t)
		deploy := newFakeDeployPipeline()
		svc := NewActivationService(stores, themes, deploy, zap.NewNop())

		resp, err := svc.Apply(ctx, "acme", ApplyThemeRequest{ThemeSlug: th.Slug})
		require.NoError(t, err)
		assert.Equal(t, "acme", resp.StoreSlug)
		assert.Equal(t, "aurora", resp.ThemeSlug)
		assert.Equal(t, pipeline.StatusProcessing, resp.Status)

		assert.Eventually(t, func() bool {
			updated, err := stores.FindByID(ctx, st.ID)
			return err == nil && updated.UsesTheme(th.ID)
		}, 2*time.Second, 10*time.Millisecond)

		deploy.mu.Lock()
		require.Len(t, deploy.calls, 1)
		assert.Equal(t, [4]string{"acme", "aurora", "Acme", "Aurora"}, deploy.calls[0])
		deploy.mu.Unlock()

		status := svc.Status("acme")
		assert.Equal(t, pipeline.StatusCompleted, status.Status)
		assert.Equal(t, "Store is live!", status.Message)
	})

	t.Run("rejects themes that have not built", func(t *testing.T) {
		stores, themes, _, _ := seed(t)
		building, err := theme.NewTheme("Drafty", "drafty", "")
		require.NoError(t, err)
		require.NoError(t, themes.Save(ctx, building))

		svc := NewActivationService(stores, themes, newFakeDeployPipeline(), zap.NewNop())
		_, err = svc.Apply(ctx, "acme", ApplyThemeRequest{ThemeSlug: building.Slug})
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "THEME_NOT_BUILT", derr.Code)
	})

	t.Run("theme slug resolves case-insensitively", func(t *testing.T) {
		stores, themes, _, _ := seed(t)
		svc := NewActivationService(stores, themes, newFakeDeployPipeline(), zap.NewNop())

		resp, err := svc.Apply(ctx, "acme", ApplyThemeRequest{ThemeSlug: "AURORA"})
		require.NoError(t, err)
		assert.Equal(t, "aurora", resp.ThemeSlug)
	})

	t.Run("unknown theme slug yields not found", func(t *testing.T) {
		stores, themes, _, _ := seed(t)
		svc := NewActivationService(stores, themes, newFakeDeployPipeline(), zap.NewNop())

		_, err := svc.Apply(ctx, "acme", ApplyThemeRequest{ThemeSlug: "ghost-theme"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("missing store yields not found", func(t *testing.T) {
		stores, themes, _, th := seed(t)
		svc := NewActivationService(stores, themes, newFakeDeployPipeline(), zap.NewNop())

		_, err := svc.Apply(ctx, "ghost", ApplyThemeRequest{ThemeSlug: th.Slug})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("pipeline failure leaves the store config untouched", func(t *testing.T) {
		stores, themes, st, th := seed(t)
		deploy := newFakeDeployPipeline()
		deploy.err = errors.New("npm install blew up")
		svc := NewActivationService(stores, themes, deploy, zap.NewNop())

		_, err := svc.Apply(ctx, "acme", ApplyThemeRequest{ThemeSlug: th.Slug})
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			return svc.Status("acme").Status == pipeline.StatusFailed
		}, 2*time.Second, 10*time.Millisecond)

		updated, err := stores.FindByID(ctx, st.ID)
		require.NoError(t, err)
		assert.False(t, updated.UsesTheme(th.ID))
	})

	t.Run("Status for unknown store synthesizes completed", func(t *testing.T) {
		stores, themes, _, _ := seed(t)
		svc := NewActivationService(stores, themes, newFakeDeployPipeline(), zap.NewNop())

		status := svc.Status("never-deployed")
		assert.Equal(t, pipeline.StatusCompleted, status.Status)
		assert.Equal(t, 100, status.Progress)
	})
}
