package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedRouter(level zapcore.Level) (*gin.Engine, *observer.ObservedLogs) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(level)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	return router, recorded
}

func requestLog(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	logs := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, logs, 1)
	return logs[0]
}

func logFields(entry observer.LoggedEntry) map[string]zapcore.Field {
	fields := make(map[string]zapcore.Field, len(entry.Context))
	for _, f := range entry.Context {
		fields[f.Key] = f
	}
	return fields
}

func TestGinMiddleware(t *testing.T) {
	t.Run("logs method, path and response fields", func(t *testing.T) {
		router, recorded := newObservedRouter(zapcore.InfoLevel)
		router.POST("/platform/themes", func(c *gin.Context) {
			c.JSON(http.StatusCreated, gin.H{"slug": "aurora"})
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/platform/themes", nil)
		req.Header.Set("User-Agent", "storecraft-cli/1.0")
		router.ServeHTTP(w, req)

		entry := requestLog(t, recorded)
		assert.Equal(t, zapcore.InfoLevel, entry.Level)

		fields := logFields(entry)
		assert.Equal(t, "POST", fields["method"].String)
		assert.Equal(t, "/platform/themes", fields["path"].String)
		assert.Equal(t, int64(http.StatusCreated), fields["status"].Integer)
		assert.Equal(t, "storecraft-cli/1.0", fields["user_agent"].String)
		assert.Contains(t, fields, "latency")
		assert.Contains(t, fields, "client_ip")
		assert.Contains(t, fields, "body_size")
	})

	t.Run("picks up the request ID set upstream", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		core, recorded := observer.New(zapcore.InfoLevel)
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set("request_id", "req-777")
			c.Next()
		})
		router.Use(GinMiddleware(zap.New(core)))
		router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		entry := requestLog(t, recorded)
		assert.Equal(t, "req-777", logFields(entry)["request_id"].String)
	})

	t.Run("includes the query string when present", func(t *testing.T) {
		router, recorded := newObservedRouter(zapcore.InfoLevel)
		router.GET("/platform/themes", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/platform/themes?status=ready&page=2", nil))

		entry := requestLog(t, recorded)
		assert.Contains(t, logFields(entry)["query"].String, "status=ready")
	})

	t.Run("4xx responses log at warn", func(t *testing.T) {
		router, recorded := newObservedRouter(zapcore.WarnLevel)
		router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

		assert.Equal(t, zapcore.WarnLevel, requestLog(t, recorded).Level)
	})

	t.Run("5xx responses log at error", func(t *testing.T) {
		router, recorded := newObservedRouter(zapcore.ErrorLevel)
		router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

		assert.Equal(t, zapcore.ErrorLevel, requestLog(t, recorded).Level)
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)
	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		panic("activation worker crashed")
	})

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	logs := recorded.FilterMessage("Panic recovered").All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].ContextMap(), "stacktrace")
}

func TestGetGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("returns the request-scoped logger", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		router := gin.New()
		router.Use(GinMiddleware(zap.New(core)))
		router.GET("/ping", func(c *gin.Context) {
			GetGinLogger(c).Info("from handler")
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Len(t, recorded.FilterMessage("from handler").All(), 1)
	})

	t.Run("falls back to a no-op logger", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())

		log := GetGinLogger(c)
		require.NotNil(t, log)
		assert.NotPanics(t, func() { log.Info("ignored") })
	})
}
