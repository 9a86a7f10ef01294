package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/bancario/account-service/internal/domain/shared"
)

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(buf *bytes.Buffer) *gin.Engine {
		logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
		router := gin.New()
		router.Use(CorrelationID())
		router.Use(Logger(logger))
		router.GET("/accounts/:id", func(c *gin.Context) {
			switch c.Param("id") {
			case "missing":
				c.Status(http.StatusNotFound)
			case "broken":
				c.Status(http.StatusInternalServerError)
			default:
				c.String(http.StatusOK, "OK")
			}
		})
		return router
	}

	t.Run("LogsRequestDetails", func(t *testing.T) {
		var buf bytes.Buffer
		req, _ := http.NewRequest(http.MethodGet, "/accounts/abc?verbose=1", nil)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set(shared.CorrelationIDHeader, "corr-42")

		newRouter(&buf).ServeHTTP(httptest.NewRecorder(), req)

		out := buf.String()
		assert.Contains(t, out, `"level":"INFO"`)
		assert.Contains(t, out, `"msg":"HTTP request"`)
		assert.Contains(t, out, `"path":"/accounts/abc?verbose=1"`)
		assert.Contains(t, out, `"route":"/accounts/:id"`)
		assert.Contains(t, out, `"status":200`)
		assert.Contains(t, out, `"user_agent":"test-agent"`)
		assert.Contains(t, out, `"correlation_id":"corr-42"`)
	})

	t.Run("LevelFollowsStatus", func(t *testing.T) {
		var buf bytes.Buffer
		router := newRouter(&buf)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/missing", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
		assert.Contains(t, buf.String(), `"level":"WARN"`)

		buf.Reset()
		req, _ = http.NewRequest(http.MethodGet, "/accounts/broken", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
		assert.Contains(t, buf.String(), `"level":"ERROR"`)
	})
}
