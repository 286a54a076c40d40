package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureLevel(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, "warn", "json")
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	Configure(&buf, "nonsense", "json")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestRequestLoggerWritesRequestLine(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, "info", "json")
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "/missing", line["path"])
	assert.EqualValues(t, 404, line["status"])
}
