package logger

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ac-server/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	log, err := InitLogger(config.LogConfig{Level: "debug", Filename: path, MaxSize: 1})
	require.NoError(t, err)

	log.Info("hello", zap.String("k", "v"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"level":"INFO"`)
}

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, getLogLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, getLogLevel("nonsense"))
}

func TestRequestLoggerLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	r := gin.New()
	r.Use(RequestLogger(log), ErrorLoggerMiddleware(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	for _, path := range []string{"/ok", "/boom"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 1, logs.FilterMessage("HTTP请求成功").Len())
	assert.Equal(t, 1, logs.FilterMessage("HTTP请求发生panic").Len())
	assert.Equal(t, 1, logs.FilterMessage("HTTP请求错误").Len())
}
