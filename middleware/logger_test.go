package middleware

import (
	"errors"
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

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := gin.New()
	r.Use(TraceID(), Logger(zap.New(core)))
	r.GET("/api/campaigns", func(c *gin.Context) {
		c.Set(UserIDKey, "u-1")
		c.Status(http.StatusOK)
	})
	r.GET("/api/broken", func(c *gin.Context) {
		_ = c.Error(errors.New("db gone"))
		c.Status(http.StatusInternalServerError)
	})

	for _, path := range []string{"/api/campaigns", "/api/broken"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Equal(t, 2, logs.Len())
	ok, failed := logs.All()[0], logs.All()[1]

	assert.Equal(t, zapcore.InfoLevel, ok.Level)
	okFields := ok.ContextMap()
	assert.Equal(t, "/api/campaigns", okFields["path"])
	assert.Equal(t, int64(http.StatusOK), okFields["status"])
	assert.Equal(t, "u-1", okFields["user_id"])
	assert.NotEmpty(t, okFields["trace_id"])

	assert.Equal(t, zapcore.ErrorLevel, failed.Level)
	assert.Contains(t, failed.ContextMap()["error"], "db gone")
	assert.NotContains(t, failed.ContextMap(), "user_id")
}
