package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerStampsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, "prod", slog.LevelInfo)).With("component", "test")

	ctx := context.WithValue(context.Background(), requestIDKey{}, "req-7")
	log.InfoContext(ctx, "booking approved")
	log.DebugContext(ctx, "dropped below level")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-7", line["request_id"])
	assert.Equal(t, "test", line["component"])
	assert.Equal(t, "booking approved", line["msg"])
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	m := Middleware{Logger: slog.New(newHandler(&buf, "prod", slog.LevelInfo))}

	var seen string
	router := gin.New()
	router.Use(m.RequestID(), m.AccessLog())
	router.GET("/ping", func(c *gin.Context) {
		seen = RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-9")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-9", seen)
	assert.Equal(t, "req-9", rec.Header().Get("X-Request-ID"))
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-9", line["request_id"])
	assert.Equal(t, float64(http.StatusNoContent), line["status"])
}
