package handler

import (
	"github.com/gin-gonic/gin"

	catalogapp "github.com/storecraft/backend/internal/application/catalog"
)

// CatalogHandler handles catalog management API endpoints
type CatalogHandler struct {
	BaseHandler
	importService *catalogapp.ImportService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(importService *catalogapp.ImportService) *CatalogHandler {
	return &CatalogHandler{importService: importService}
}

// ImportProducts godoc
// @Summary      Import products from a CSV file
// @Description  Upserts products by store-scoped SKU; invalid rows are skipped and reported
// @Tags         catalog
// @Accept       multipart/form-data
// @Produce      json
// @Param        slug path string true "Store slug"
// @Param        file formData file true "CSV file (columns: sku, name, price, description, category, inventory_quantity, images, status)"
// @Success      200 {object} dto.Response{data=catalogapp.ImportResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /platform/stores/{slug}/products/import [post]
func (h *CatalogHandler) ImportProducts(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "CSV file is required (field: file)")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read uploaded file")
		return
	}
	defer file.Close()

	result, err := h.importService.ImportProducts(c.Request.Context(), c.Param("slug"), file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RegisterRoutes registers catalog management routes
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/platform/stores/:slug/products/import", h.ImportProducts)
}
