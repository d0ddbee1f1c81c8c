package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/storecraft/backend/internal/application/storefront"
)

// StorefrontHandler handles the public endpoints consumed by deployed themes
type StorefrontHandler struct {
	BaseHandler
	storefrontService *storefront.StorefrontService
}

// NewStorefrontHandler creates a new StorefrontHandler
func NewStorefrontHandler(storefrontService *storefront.StorefrontService) *StorefrontHandler {
	return &StorefrontHandler{storefrontService: storefrontService}
}

// Live godoc
// @Summary      Get the live-store payload
// @Description  Store info, active theme, available products and categories for a live storefront
// @Tags         storefront
// @Produce      json
// @Param        storeSlug path string true "Store slug"
// @Success      200 {object} dto.Response{data=storefront.LiveStoreResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /s/live/{storeSlug} [get]
func (h *StorefrontHandler) Live(c *gin.Context) {
	resp, err := h.storefrontService.Live(c.Request.Context(), c.Param("storeSlug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Register godoc
// @Summary      Register a customer
// @Tags         storefront
// @Accept       json
// @Produce      json
// @Param        request body storefront.RegisterRequest true "Registration request"
// @Success      201 {object} dto.Response{data=storefront.AuthResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/customers/register [post]
func (h *StorefrontHandler) Register(c *gin.Context) {
	var req storefront.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.storefrontService.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Login godoc
// @Summary      Log a customer in
// @Tags         storefront
// @Accept       json
// @Produce      json
// @Param        request body storefront.LoginRequest true "Login request"
// @Success      200 {object} dto.Response{data=storefront.AuthResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/customers/login [post]
func (h *StorefrontHandler) Login(c *gin.Context) {
	var req storefront.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.storefrontService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RegisterRoutes registers the public storefront routes
func (h *StorefrontHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/s/live/:storeSlug", h.Live)

	customers := rg.Group("/store/customers")
	{
		customers.POST("/register", h.Register)
		customers.POST("/login", h.Login)
	}
}
