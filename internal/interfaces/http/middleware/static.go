package middleware

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// StaticUploads serves built artifacts from the upload workspace with the
// clean-URL fallback static exports expect: the exact file, then
// <path>.html, then <path>/index.html. Directories are never listed.
//
// Register with a wildcard route:
//
//	engine.GET("/uploads/*filepath", middleware.StaticUploads(root))
func StaticUploads(root string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requested := c.Param("filepath")

		// Clean with a forced leading slash so ".." cannot escape the root
		clean := path.Clean("/" + requested)
		full := filepath.Join(root, filepath.FromSlash(clean))

		candidates := []string{
			full,
			full + ".html",
			filepath.Join(full, "index.html"),
		}
		for _, candidate := range candidates {
			info, err := os.Stat(candidate)
			if err != nil || info.IsDir() {
				continue
			}
			c.File(candidate)
			return
		}

		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "File not found",
			},
		})
	}
}
