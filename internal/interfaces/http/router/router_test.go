package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubRegistrar struct {
	mounted *gin.RouterGroup
}

func (s *stubRegistrar) RegisterRoutes(rg *gin.RouterGroup) {
	s.mounted = rg
	rg.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
}

func TestRouter_Setup(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("mounts registrars under the default version", func(t *testing.T) {
		engine := gin.New()
		reg := &stubRegistrar{}

		NewRouter(engine).Register(reg).Setup()

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pong", w.Body.String())
		assert.NotNil(t, reg.mounted)
	})

	t.Run("honors a custom API version", func(t *testing.T) {
		engine := gin.New()

		NewRouter(engine, WithAPIVersion("v2")).Register(&stubRegistrar{}).Setup()

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("registration order is preserved and chainable", func(t *testing.T) {
		engine := gin.New()
		var order []string

		first := registrarFunc(func(rg *gin.RouterGroup) { order = append(order, "first") })
		second := registrarFunc(func(rg *gin.RouterGroup) { order = append(order, "second") })

		NewRouter(engine).Register(first).Register(second).Setup()
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("setup with no registrars does not panic", func(t *testing.T) {
		engine := gin.New()
		assert.NotPanics(t, func() {
			NewRouter(engine).Setup()
		})
	})
}

type registrarFunc func(rg *gin.RouterGroup)

func (f registrarFunc) RegisterRoutes(rg *gin.RouterGroup) { f(rg) }
