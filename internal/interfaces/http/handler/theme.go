package handler

import (
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	themeapp "github.com/storecraft/backend/internal/application/theme"
	"github.com/storecraft/backend/internal/interfaces/http/dto"
)

// ThemeHandler handles theme catalog API endpoints
type ThemeHandler struct {
	BaseHandler
	themeService *themeapp.ThemeService
}

// NewThemeHandler creates a new ThemeHandler
func NewThemeHandler(themeService *themeapp.ThemeService) *ThemeHandler {
	return &ThemeHandler{themeService: themeService}
}

// Upload godoc
// @Summary      Upload a theme
// @Description  Upload a theme archive and dispatch a background build
// @Tags         themes
// @Accept       multipart/form-data
// @Produce      json
// @Param        name formData string true "Display name"
// @Param        slug formData string true "URL-safe identifier"
// @Param        description formData string false "Description"
// @Param        buildZip formData file true "Theme source archive (zip)"
// @Param        thumbnail formData file false "Preview image"
// @Success      201 {object} dto.Response{data=themeapp.ThemeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /platform/themes [post]
func (h *ThemeHandler) Upload(c *gin.Context) {
	req := themeapp.UploadThemeRequest{
		Name:        c.PostForm("name"),
		Slug:        c.PostForm("slug"),
		Description: c.PostForm("description"),
	}
	if req.Name == "" || req.Slug == "" {
		h.BadRequest(c, "name and slug are required")
		return
	}

	archive, err := c.FormFile("buildZip")
	if err != nil {
		h.BadRequest(c, "buildZip archive is required")
		return
	}
	archiveFile, err := archive.Open()
	if err != nil {
		h.BadRequest(c, "could not read buildZip archive")
		return
	}
	defer archiveFile.Close()
	req.Archive = archiveFile

	if thumb, err := c.FormFile("thumbnail"); err == nil {
		thumbFile, closeThumb, ext, terr := openThumbnail(thumb)
		if terr != nil {
			h.BadRequest(c, "could not read thumbnail")
			return
		}
		defer closeThumb()
		req.Thumbnail = thumbFile
		req.ThumbnailExt = ext
	}

	resp, err := h.themeService.Upload(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

func openThumbnail(fh *multipart.FileHeader) (multipart.File, func(), string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, "", err
	}
	ext := strings.TrimPrefix(filepath.Ext(fh.Filename), ".")
	return f, func() { f.Close() }, ext, nil
}

// List godoc
// @Summary      List themes
// @Tags         themes
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        search query string false "Name search"
// @Success      200 {object} dto.Response{data=[]themeapp.ThemeResponse}
// @Router       /platform/themes [get]
func (h *ThemeHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.themeService.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get godoc
// @Summary      Get a theme by slug
// @Tags         themes
// @Produce      json
// @Param        slug path string true "Theme slug"
// @Success      200 {object} dto.Response{data=themeapp.ThemeResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /platform/themes/{slug} [get]
func (h *ThemeHandler) Get(c *gin.Context) {
	resp, err := h.themeService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update godoc
// @Summary      Update theme metadata
// @Tags         themes
// @Accept       json
// @Produce      json
// @Param        slug path string true "Theme slug"
// @Param        request body themeapp.UpdateThemeRequest true "Fields to update"
// @Success      200 {object} dto.Response{data=themeapp.ThemeResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /platform/themes/{slug} [put]
func (h *ThemeHandler) Update(c *gin.Context) {
	id, ok := h.resolveThemeID(c)
	if !ok {
		return
	}

	var req themeapp.UpdateThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.themeService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @Summary      Delete a theme
// @Description  Refused while any store still uses the theme or a build is running
// @Tags         themes
// @Produce      json
// @Param        slug path string true "Theme slug"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /platform/themes/{slug} [delete]
func (h *ThemeHandler) Delete(c *gin.Context) {
	id, ok := h.resolveThemeID(c)
	if !ok {
		return
	}

	if err := h.themeService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Logs godoc
// @Summary      Get theme build log tail
// @Tags         themes
// @Produce      json
// @Param        slug path string true "Theme slug"
// @Success      200 {object} dto.Response{data=themeapp.BuildLogResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /platform/themes/{slug}/logs [get]
func (h *ThemeHandler) Logs(c *gin.Context) {
	resp, err := h.themeService.Logs(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// resolveThemeID translates the slug path parameter into the theme's ID
func (h *ThemeHandler) resolveThemeID(c *gin.Context) (uuid.UUID, bool) {
	th, err := h.themeService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return uuid.Nil, false
	}
	return th.ID, true
}

// RegisterRoutes registers theme catalog routes
func (h *ThemeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	themes := rg.Group("/platform/themes")
	{
		themes.POST("", h.Upload)
		themes.GET("", h.List)
		themes.GET("/:slug", h.Get)
		themes.PUT("/:slug", h.Update)
		themes.DELETE("/:slug", h.Delete)
		themes.GET("/:slug/logs", h.Logs)
	}
}
