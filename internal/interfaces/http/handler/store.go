package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	storeapp "github.com/storecraft/backend/internal/application/store"
	"github.com/storecraft/backend/internal/interfaces/http/dto"
)

// StoreHandler handles store management API endpoints
type StoreHandler struct {
	BaseHandler
	storeService      *storeapp.StoreService
	activationService *storeapp.ActivationService
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(storeService *storeapp.StoreService, activationService *storeapp.ActivationService) *StoreHandler {
	return &StoreHandler{
		storeService:      storeService,
		activationService: activationService,
	}
}

// Create godoc
// @Summary      Create a store
// @Tags         stores
// @Accept       json
// @Produce      json
// @Param        request body storeapp.CreateStoreRequest true "Store creation request"
// @Success      201 {object} dto.Response{data=storeapp.StoreResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /platform/stores [post]
func (h *StoreHandler) Create(c *gin.Context) {
	var req storeapp.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.storeService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List godoc
// @Summary      List stores
// @Tags         stores
// @Produce      json
// @Success      200 {object} dto.Response{data=[]storeapp.StoreResponse}
// @Router       /platform/stores [get]
func (h *StoreHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.storeService.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get godoc
// @Summary      Get a store by slug
// @Tags         stores
// @Produce      json
// @Param        slug path string true "Store slug"
// @Success      200 {object} dto.Response{data=storeapp.StoreResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /platform/stores/{slug} [get]
func (h *StoreHandler) Get(c *gin.Context) {
	resp, err := h.storeService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update godoc
// @Summary      Update store branding
// @Tags         stores
// @Accept       json
// @Produce      json
// @Param        slug path string true "Store slug"
// @Param        request body storeapp.UpdateStoreRequest true "Fields to update"
// @Success      200 {object} dto.Response{data=storeapp.StoreResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /platform/stores/{slug} [put]
func (h *StoreHandler) Update(c *gin.Context) {
	id, ok := h.resolveStoreID(c)
	if !ok {
		return
	}

	var req storeapp.UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.storeService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @Summary      Delete a store
// @Tags         stores
// @Produce      json
// @Param        slug path string true "Store slug"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /platform/stores/{slug} [delete]
func (h *StoreHandler) Delete(c *gin.Context) {
	id, ok := h.resolveStoreID(c)
	if !ok {
		return
	}

	if err := h.storeService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ApplyTheme godoc
// @Summary      Activate a theme for a store
// @Description  Dispatches the deployment pipeline in the background; poll deploy-status for progress
// @Tags         stores
// @Accept       json
// @Produce      json
// @Param        slug path string true "Store slug"
// @Param        request body storeapp.ApplyThemeRequest true "Theme to activate"
// @Success      202 {object} dto.Response{data=storeapp.ActivationAcceptedResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /platform/stores/{slug}/apply-theme [post]
func (h *StoreHandler) ApplyTheme(c *gin.Context) {
	var req storeapp.ApplyThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.activationService.Apply(c.Request.Context(), c.Param("slug"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, resp)
}

// DeployStatus godoc
// @Summary      Poll deployment status for a store
// @Tags         stores
// @Produce      json
// @Param        slug path string true "Store slug"
// @Success      200 {object} dto.Response{data=pipeline.DeployStatus}
// @Router       /platform/stores/{slug}/deploy-status [get]
func (h *StoreHandler) DeployStatus(c *gin.Context) {
	h.Success(c, h.activationService.Status(c.Param("slug")))
}

// resolveStoreID translates the slug path parameter into the store's ID
func (h *StoreHandler) resolveStoreID(c *gin.Context) (uuid.UUID, bool) {
	st, err := h.storeService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return uuid.Nil, false
	}
	return st.ID, true
}

// RegisterRoutes registers store management routes
func (h *StoreHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stores := rg.Group("/platform/stores")
	{
		stores.POST("", h.Create)
		stores.GET("", h.List)
		stores.GET("/:slug", h.Get)
		stores.PUT("/:slug", h.Update)
		stores.DELETE("/:slug", h.Delete)
		stores.POST("/:slug/apply-theme", h.ApplyTheme)
		stores.GET("/:slug/deploy-status", h.DeployStatus)
	}
}
