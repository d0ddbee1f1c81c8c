package storefront

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/storecraft/backend/internal/domain/catalog"
	"github.com/storecraft/backend/internal/domain/shared"
	"github.com/storecraft/backend/internal/domain/store"
	"github.com/storecraft/backend/internal/domain/theme"
	"github.com/storecraft/backend/internal/infrastructure/auth"
)

// ErrInvalidCredentials is returned for unknown emails and wrong passwords
// alike, so login probes cannot distinguish the two.
var ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")

// StorefrontService serves the public endpoints consumed by deployed themes:
// the live store payload and customer registration/login.
type StorefrontService struct {
	stores     store.Repository
	themes     theme.Repository
	customers  store.CustomerRepository
	products   catalog.ProductRepository
	categories catalog.CategoryRepository
	tokens     *auth.JWTService
	logger     *zap.Logger
}

// NewStorefrontService creates a new StorefrontService
func NewStorefrontService(
	stores store.Repository,
	themes theme.Repository,
	customers store.CustomerRepository,
	products catalog.ProductRepository,
	categories catalog.CategoryRepository,
	tokens *auth.JWTService,
	logger *zap.Logger,
) *StorefrontService {
	return &StorefrontService{
		stores:     stores,
		themes:     themes,
		customers:  customers,
		products:   products,
		categories: categories,
		tokens:     tokens,
		logger:     logger.Named("storefront-service"),
	}
}

// Live assembles the public payload for a store's deployed theme: branding
// from the config blob, the active theme and the available catalog.
func (s *StorefrontService) Live(ctx context.Context, storeSlug string) (*LiveStoreResponse, error) {
	st, err := s.stores.FindBySlug(ctx, strings.ToLower(storeSlug))
	if err != nil {
		return nil, err
	}
	if !st.IsActive() {
		return nil, shared.ErrNotFound
	}

	resp := &LiveStoreResponse{
		Store: LiveStoreInfo{
			ID:          st.ID,
			Name:        st.Name,
			Slug:        st.Slug,
			Tagline:     st.Config.Tagline,
			Logo:        st.Config.Logo,
			Currency:    st.Config.Currency,
			ContactInfo: st.Config.ContactInfo,
		},
		Products:   []LiveProduct{},
		Categories: []LiveCategory{},
	}

	if st.Config.ThemeID != nil {
		th, err := s.themes.FindByID(ctx, *st.Config.ThemeID)
		if err == nil {
			resp.Theme = &LiveThemeInfo{Slug: th.Slug, Name: th.Name}
		} else if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	products, err := s.products.FindAvailableByStore(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	for i := range products {
		resp.Products = append(resp.Products, ToLiveProduct(&products[i]))
	}

	categories, err := s.categories.FindByStore(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		resp.Categories = append(resp.Categories, LiveCategory{ID: c.ID, Name: c.Name})
	}

	return resp, nil
}

// Register creates a customer account for a store and issues a session token
func (s *StorefrontService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	st, err := s.stores.FindByID(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}

	exists, err := s.customers.ExistsByEmail(ctx, st.ID, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered for this store")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	customer, err := store.NewCustomer(st.ID, req.Email, req.Name, string(hash))
	if err != nil {
		return nil, err
	}

	if err := s.customers.Save(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("Customer registered",
		zap.String("store", st.Slug),
		zap.String("customer_id", customer.ID.String()))

	return s.issueToken(customer)
}

// Login authenticates a customer and issues a session token
func (s *StorefrontService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	customer, err := s.customers.FindByEmail(ctx, req.StoreID, req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	customer.RecordLogin()
	if err := s.customers.Save(ctx, customer); err != nil {
		s.logger.Warn("Failed to record customer login",
			zap.String("customer_id", customer.ID.String()), zap.Error(err))
	}

	return s.issueToken(customer)
}

func (s *StorefrontService) issueToken(customer *store.Customer) (*AuthResponse, error) {
	token, err := s.tokens.GenerateToken(auth.GenerateTokenInput{
		StoreID:    customer.StoreID,
		CustomerID: customer.ID,
		Email:      customer.Email,
		Name:       customer.Name,
	})
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token:     token.AccessToken,
		ExpiresAt: token.ExpiresAt,
		Customer:  ToCustomerResponse(customer),
	}, nil
}
