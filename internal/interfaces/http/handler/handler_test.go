package handler

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	catalogapp "github.com/storecraft/backend/internal/application/catalog"
	storeapp "github.com/storecraft/backend/internal/application/store"
	"github.com/storecraft/backend/internal/application/storefront"
	themeapp "github.com/storecraft/backend/internal/application/theme"
	"github.com/storecraft/backend/internal/domain/catalog"
	"github.com/storecraft/backend/internal/domain/shared"
	"github.com/storecraft/backend/internal/domain/store"
	"github.com/storecraft/backend/internal/domain/theme"
	"github.com/storecraft/backend/internal/infrastructure/auth"
	"github.com/storecraft/backend/internal/infrastructure/config"
	"github.com/storecraft/backend/internal/infrastructure/pipeline"
	"github.com/storecraft/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
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

func (r *fakeThemeRepo) FindAll(_ context.Context, _ shared.Filter) ([]theme.Theme, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]theme.Theme, 0, len(r.themes))
	for _, t := range r.themes {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeThemeRepo) Count(context.Context, shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.themes)), nil
}

func (r *fakeThemeRepo) ExistsBySlug(_ context.Context, slug string) (bool, error) {
	_, err := r.FindBySlug(context.Background(), slug)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *fakeThemeRepo) Save(_ context.Context, t *theme.Theme) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.themes[t.ID] = *t
	return nil
}

func (r *fakeThemeRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.themes[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.themes, id)
	return nil
}

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

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[uuid.UUID]store.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[uuid.UUID]store.Customer)}
}

func (r *fakeCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*store.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.customers[id]; ok {
		clone := c
		return &clone, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeCustomerRepo) FindByEmail(_ context.Context, storeID uuid.UUID, email string) (*store.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.customers {
		if c.StoreID == storeID && c.Email == email {
			clone := c
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeCustomerRepo) ExistsByEmail(ctx context.Context, storeID uuid.UUID, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, storeID, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *fakeCustomerRepo) Save(_ context.Context, c *store.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[c.ID] = *c
	return nil
}

type fakeProductRepo struct {
	products []catalog.Product
}

func (r *fakeProductRepo) FindByID(context.Context, uuid.UUID) (*catalog.Product, error) {
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindByStoreAndSKU(_ context.Context, storeID uuid.UUID, sku string) (*catalog.Product, error) {
	for i := range r.products {
		if r.products[i].StoreID == storeID && r.products[i].SKU == sku {
			p := r.products[i]
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindAvailableByStore(_ context.Context, storeID uuid.UUID) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range r.products {
		if p.StoreID == storeID && p.IsAvailable() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Save(_ context.Context, p *catalog.Product) error {
	for i := range r.products {
		if r.products[i].SKU == p.SKU && r.products[i].StoreID == p.StoreID {
			r.products[i] = *p
			return nil
		}
	}
	r.products = append(r.products, *p)
	return nil
}

type fakeCategoryRepo struct {
	categories []catalog.Category
}

func (r *fakeCategoryRepo) FindByStore(_ context.Context, storeID uuid.UUID) ([]catalog.Category, error) {
	var out []catalog.Category
	for _, c := range r.categories {
		if c.StoreID == storeID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCategoryRepo) FindByStoreAndName(_ context.Context, storeID uuid.UUID, name string) (*catalog.Category, error) {
	for i := range r.categories {
		if r.categories[i].StoreID == storeID && strings.EqualFold(r.categories[i].Name, name) {
			c := r.categories[i]
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeCategoryRepo) Save(_ context.Context, c *catalog.Category) error {
	r.categories = append(r.categories, *c)
	return nil
}

type fakeBuilder struct {
	mu    sync.Mutex
	slugs []string
	err   error
}

func (b *fakeBuilder) BuildTheme(_ context.Context, slug string, progress pipeline.ProgressFunc) (*pipeline.BuildResult, error) {
	b.mu.Lock()
	b.slugs = append(b.slugs, slug)
	b.mu.Unlock()

	if b.err != nil {
		return nil, b.err
	}
	if progress != nil {
		progress("Building static bundle...", 75)
	}
	return &pipeline.BuildResult{OutputDir: "out", Attempts: 1}, nil
}

type fakeDeploy struct {
	tracker *pipeline.StatusTracker
	err     error
}

func newFakeDeploy() *fakeDeploy {
	return &fakeDeploy{tracker: pipeline.NewStatusTracker(time.Minute)}
}

func (d *fakeDeploy) ActivateForStore(_ context.Context, storeSlug, _, _, _ string) (*pipeline.BuildResult, error) {
	if d.err != nil {
		d.tracker.Update(storeSlug, 100, d.err.Error(), pipeline.StatusFailed)
		return nil, d.err
	}
	d.tracker.Update(storeSlug, 100, "Store is live!", pipeline.StatusCompleted)
	return &pipeline.BuildResult{OutputDir: "out", Attempts: 1}, nil
}

func (d *fakeDeploy) Tracker() *pipeline.StatusTracker { return d.tracker }

type fixture struct {
	engine     *gin.Engine
	themes     *fakeThemeRepo
	stores     *fakeStoreRepo
	customers  *fakeCustomerRepo
	products   *fakeProductRepo
	categories *fakeCategoryRepo
	builder    *fakeBuilder
	deploy     *fakeDeploy
	workspace  *pipeline.Workspace
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ws, err := pipeline.NewWorkspace(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		themes:     newFakeThemeRepo(),
		stores:     newFakeStoreRepo(),
		customers:  newFakeCustomerRepo(),
		products:   &fakeProductRepo{},
		categories: &fakeCategoryRepo{},
		builder:    &fakeBuilder{},
		deploy:     newFakeDeploy(),
		workspace:  ws,
	}

	logger := zap.NewNop()
	tokens := auth.NewJWTService(config.JWTConfig{
		Secret:          "test-secret-key-that-is-long-enough",
		TokenExpiration: time.Hour,
		Issuer:          "storecraft-test",
	})

	themeService := themeapp.NewThemeService(f.themes, f.stores, f.builder, ws, logger)
	storeService := storeapp.NewStoreService(f.stores, ws, logger)
	activationService := storeapp.NewActivationService(f.stores, f.themes, f.deploy, logger)
	storefrontService := storefront.NewStorefrontService(
		f.stores, f.themes, f.customers, f.products, f.categories, tokens, logger,
	)
	importService := catalogapp.NewImportService(f.stores, f.products, f.categories, logger)

	f.engine = gin.New()
	api := f.engine.Group("/api/v1")
	NewThemeHandler(themeService).RegisterRoutes(api)
	NewStoreHandler(storeService, activationService).RegisterRoutes(api)
	NewStorefrontHandler(storefrontService).RegisterRoutes(api)
	NewCatalogHandler(importService).RegisterRoutes(api)
	NewSystemHandler().RegisterRoutes(api)

	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func themeUploadBody(t *testing.T, name, slug string) (*bytes.Buffer, string) {
	t.Helper()

	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	fw, err := zw.Create("package.json")
	require.NoError(t, err)
	_, err = fw.Write([]byte(`{"name":"demo-theme"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", name))
	require.NoError(t, mw.WriteField("slug", slug))
	require.NoError(t, mw.WriteField("description", "demo"))
	part, err := mw.CreateFormFile("buildZip", slug+".zip")
	require.NoError(t, err)
	_, err = part.Write(zipBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &body, mw.FormDataContentType()
}

func TestThemeHandler_Upload(t *testing.T) {
	t.Run("accepts a multipart upload and dispatches the build", func(t *testing.T) {
		f := newFixture(t)

		body, contentType := themeUploadBody(t, "Aurora", "aurora")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/platform/themes", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		f.engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "aurora", data["slug"])
		assert.Equal(t, string(theme.StatusBuilding), data["status"])

		assert.Eventually(t, func() bool {
			th, err := f.themes.FindBySlug(context.Background(), "aurora")
			return err == nil && th.Status == theme.StatusActive
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("rejects uploads without an archive", func(t *testing.T) {
		f := newFixture(t)

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("name", "Aurora"))
		require.NoError(t, mw.WriteField("slug", "aurora"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/platform/themes", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects uploads missing name or slug", func(t *testing.T) {
		f := newFixture(t)

		body, contentType := themeUploadBody(t, "", "aurora")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/platform/themes", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestThemeHandler_ReadEndpoints(t *testing.T) {
	seed := func(t *testing.T, f *fixture) *theme.Theme {
		t.Helper()
		th, err := theme.NewTheme("Aurora", "aurora", "demo")
		require.NoError(t, err)
		th.MarkActive("ready")
		require.NoError(t, f.themes.Save(context.Background(), th))
		return th
	}

	t.Run("lists themes with pagination meta", func(t *testing.T) {
		f := newFixture(t)
		seed(t, f)

		w := f.do(t, http.MethodGet, "/api/v1/platform/themes?page=1&page_size=10", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(1), resp.Meta.Total)
	})

	t.Run("gets a theme by slug", func(t *testing.T) {
		f := newFixture(t)
		seed(t, f)

		w := f.do(t, http.MethodGet, "/api/v1/platform/themes/aurora", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.Equal(t, "Aurora", data["name"])
	})

	t.Run("unknown slug yields 404 with normalized code", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodGet, "/api/v1/platform/themes/ghost", nil)
		require.Equal(t, http.StatusNotFound, w.Code)

		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("returns the build log tail", func(t *testing.T) {
		f := newFixture(t)
		seed(t, f)

		w := f.do(t, http.MethodGet, "/api/v1/platform/themes/aurora/logs", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.Equal(t, "aurora", data["slug"])
		assert.NotEmpty(t, data["log"])
	})
}

func TestThemeHandler_Delete(t *testing.T) {
	t.Run("deletes an unused theme", func(t *testing.T) {
		f := newFixture(t)
		th, err := theme.NewTheme("Aurora", "aurora", "")
		require.NoError(t, err)
		th.MarkActive("ready")
		require.NoError(t, f.themes.Save(context.Background(), th))

		w := f.do(t, http.MethodDelete, "/api/v1/platform/themes/aurora", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("refuses deletion while a store uses the theme", func(t *testing.T) {
		f := newFixture(t)
		th, err := theme.NewTheme("Aurora", "aurora", "")
		require.NoError(t, err)
		th.MarkActive("ready")
		require.NoError(t, f.themes.Save(context.Background(), th))

		st, err := store.NewStore("Acme", "acme")
		require.NoError(t, err)
		st.ActivateTheme(th.ID)
		require.NoError(t, f.stores.Save(context.Background(), st))

		w := f.do(t, http.MethodDelete, "/api/v1/platform/themes/aurora", nil)
		require.Equal(t, http.StatusConflict, w.Code)

		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeThemeInUse, resp.Error.Code)
	})
}

func TestStoreHandler_CRUD(t *testing.T) {
	t.Run("creates a store", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodPost, "/api/v1/platform/stores", storeapp.CreateStoreRequest{
			Name: "Acme Outfitters",
			Slug: "acme",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.Equal(t, "acme", data["slug"])
	})

	t.Run("duplicate slug yields 409", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodPost, "/api/v1/platform/stores", storeapp.CreateStoreRequest{Name: "Acme", Slug: "acme"})
		require.Equal(t, http.StatusCreated, w.Code)

		w = f.do(t, http.MethodPost, "/api/v1/platform/stores", storeapp.CreateStoreRequest{Name: "Other", Slug: "acme"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("updates branding by slug", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodPost, "/api/v1/platform/stores", storeapp.CreateStoreRequest{Name: "Acme", Slug: "acme"})
		require.Equal(t, http.StatusCreated, w.Code)

		w = f.do(t, http.MethodPut, "/api/v1/platform/stores/acme", storeapp.UpdateStoreRequest{Tagline: "Gear for everyone"})
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.Equal(t, "Gear for everyone", data["tagline"])
	})

	t.Run("deletes a store by slug", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodPost, "/api/v1/platform/stores", storeapp.CreateStoreRequest{Name: "Acme", Slug: "acme"})
		require.Equal(t, http.StatusCreated, w.Code)

		w = f.do(t, http.MethodDelete, "/api/v1/platform/stores/acme", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = f.do(t, http.MethodGet, "/api/v1/platform/stores/acme", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStoreHandler_ApplyTheme(t *testing.T) {
	seed := func(t *testing.T, f *fixture) (*store.Store, *theme.Theme) {
		t.Helper()
		st, err := store.NewStore("Acme", "acme")
		require.NoError(t, err)
		require.NoError(t, f.stores.Save(context.Background(), st))

		th, err := theme.NewTheme("Aurora", "aurora", "")
		require.NoError(t, err)
		th.MarkActive("ready")
		require.NoError(t, f.themes.Save(context.Background(), th))
		return st, th
	}

	t.Run("accepts the activation and exposes progress", func(t *testing.T) {
		f := newFixture(t)
		st, th := seed(t, f)

		w := f.do(t, http.MethodPost, "/api/v1/platform/stores/acme/apply-theme", storeapp.ApplyThemeRequest{ThemeSlug: th.Slug})
		require.Equal(t, http.StatusAccepted, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.Equal(t, "aurora", data["theme_slug"])
		assert.Equal(t, pipeline.StatusProcessing, data["status"])

		assert.Eventually(t, func() bool {
			updated, err := f.stores.FindByID(context.Background(), st.ID)
			return err == nil && updated.UsesTheme(th.ID)
		}, 2*time.Second, 10*time.Millisecond)

		assert.Eventually(t, func() bool {
			w := f.do(t, http.MethodGet, "/api/v1/platform/stores/acme/deploy-status", nil)
			if w.Code != http.StatusOK {
				return false
			}
			data := decodeResponse(t, w).Data.(map[string]interface{})
			return data["status"] == pipeline.StatusCompleted
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("rejects themes that have not built", func(t *testing.T) {
		f := newFixture(t)
		seed(t, f)

		building, err := theme.NewTheme("Drafty", "drafty", "")
		require.NoError(t, err)
		require.NoError(t, f.themes.Save(context.Background(), building))

		w := f.do(t, http.MethodPost, "/api/v1/platform/stores/acme/apply-theme", storeapp.ApplyThemeRequest{ThemeSlug: building.Slug})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeThemeNotBuilt, resp.Error.Code)
	})
}

func TestStorefrontHandler(t *testing.T) {
	seed := func(t *testing.T, f *fixture) *store.Store {
		t.Helper()
		st, err := store.NewStore("Acme Outfitters", "acme")
		require.NoError(t, err)
		require.NoError(t, f.stores.Save(context.Background(), st))
		return st
	}

	t.Run("serves the live-store payload", func(t *testing.T) {
		f := newFixture(t)
		st := seed(t, f)

		p, err := catalog.NewProduct(st.ID, "TRJ-1", "Trail Jacket", decimal.NewFromFloat(12.50))
		require.NoError(t, err)
		p.InventoryQuantity = 7
		require.NoError(t, f.products.Save(context.Background(), p))

		w := f.do(t, http.MethodGet, "/api/v1/s/live/acme", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		storeInfo := data["store"].(map[string]interface{})
		assert.Equal(t, "Acme Outfitters", storeInfo["name"])

		products := data["products"].([]interface{})
		require.Len(t, products, 1)
		product := products[0].(map[string]interface{})
		assert.Equal(t, "12.50", product["price"])
		assert.Equal(t, float64(7), product["inventoryQuantity"])
	})

	t.Run("registers a customer and returns a token", func(t *testing.T) {
		f := newFixture(t)
		st := seed(t, f)

		w := f.do(t, http.MethodPost, "/api/v1/store/customers/register", storefront.RegisterRequest{
			StoreID:  st.ID,
			Email:    "jo@example.com",
			Name:     "Jo",
			Password: "super-secret",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.NotEmpty(t, data["token"])
	})

	t.Run("login with a wrong password yields 401", func(t *testing.T) {
		f := newFixture(t)
		st := seed(t, f)

		w := f.do(t, http.MethodPost, "/api/v1/store/customers/register", storefront.RegisterRequest{
			StoreID:  st.ID,
			Email:    "jo@example.com",
			Name:     "Jo",
			Password: "super-secret",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w = f.do(t, http.MethodPost, "/api/v1/store/customers/login", storefront.LoginRequest{
			StoreID:  st.ID,
			Email:    "jo@example.com",
			Password: "wrong-password",
		})
		require.Equal(t, http.StatusUnauthorized, w.Code)

		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
	})
}

func csvImportBody(t *testing.T, csvData string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "products.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvData))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &body, mw.FormDataContentType()
}

func TestCatalogHandler_ImportProducts(t *testing.T) {
	importCSV := func(t *testing.T, f *fixture, slug, csvData string) *httptest.ResponseRecorder {
		t.Helper()
		body, contentType := csvImportBody(t, csvData)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/platform/stores/"+slug+"/products/import", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		f.engine.ServeHTTP(w, req)
		return w
	}

	t.Run("imports products and reports row outcomes", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodPost, "/api/v1/platform/stores", storeapp.CreateStoreRequest{Name: "Acme", Slug: "acme"})
		require.Equal(t, http.StatusCreated, w.Code)

		csvData := "sku,name,price,category,inventory_quantity\n" +
			"TRJ-1,Trail Jacket,129.90,Outerwear,12\n" +
			"BAD-1,,10.00,,\n"
		w = importCSV(t, f, "acme", csvData)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.Equal(t, float64(1), data["created"])
		assert.Equal(t, float64(1), data["skipped"])
		require.Len(t, f.products.products, 1)
		assert.Equal(t, "TRJ-1", f.products.products[0].SKU)
		require.Len(t, f.categories.categories, 1)
		assert.Equal(t, "Outerwear", f.categories.categories[0].Name)
	})

	t.Run("missing file yields 400", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodPost, "/api/v1/platform/stores", storeapp.CreateStoreRequest{Name: "Acme", Slug: "acme"})
		require.Equal(t, http.StatusCreated, w.Code)

		w = f.do(t, http.MethodPost, "/api/v1/platform/stores/acme/products/import", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown store yields 404", func(t *testing.T) {
		f := newFixture(t)

		w := importCSV(t, f, "nope", "sku,name,price\nA-1,Thing,1.00\n")
		require.Equal(t, http.StatusNotFound, w.Code)

		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})
}
