package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecovery_LogsAndAnswers500(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := gin.New()
	r.Use(TraceID(), Recovery(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) {
		c.Set(UserIDKey, "u-1")
		panic("dice exploded")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(TraceIDHeader, "trace-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "trace-1", fields["trace_id"])
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "dice exploded", fields["error"])
}

func TestRecovery_AfterPartialWrite(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/stream", func(c *gin.Context) {
		c.String(http.StatusOK, "event: connected\n\n")
		panic("mid-stream")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "event: connected\n\n", w.Body.String())
}

func TestRecovery_PassThrough(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
