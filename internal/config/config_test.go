package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-vis-pipeline/internal/logger"
)

func TestLoad(t *testing.T) {
	t.Run("Should return defaults without environment overrides", func(t *testing.T) {
		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.Equal(t, ":8080", cfg.Addr())
	})

	t.Run("Should apply prefixed environment variables", func(t *testing.T) {
		t.Setenv("PIPELINE_SERVER_HOST", "127.0.0.1")
		t.Setenv("PIPELINE_SERVER_PORT", "9090")
		t.Setenv("PIPELINE_LOG_LEVEL", "debug")
		t.Setenv("PIPELINE_LOG_JSON", "true")
		t.Setenv("PIPELINE_FETCH_RETRY_WAIT", "250ms")
		t.Setenv("PIPELINE_STORE_PATH", "/tmp/vis.db")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
		assert.Equal(t, 250*time.Millisecond, cfg.Fetch.RetryWait)
		assert.Equal(t, "/tmp/vis.db", cfg.Store.Path)
		assert.Equal(t, logger.DebugLevel, cfg.LoggerConfig().Level)
		assert.True(t, cfg.LoggerConfig().JSON)
		assert.Equal(t, cfg.Fetch.RetryWait, cfg.FetchConfig().RetryWait)
	})

	t.Run("Should reject invalid values", func(t *testing.T) {
		t.Setenv("PIPELINE_LOG_LEVEL", "verbose")

		_, err := Load()

		assert.ErrorContains(t, err, "configuration validation failed")
	})
}

func TestEnvKey(t *testing.T) {
	t.Run("Should map variables to nested paths", func(t *testing.T) {
		assert.Equal(t, "fetch.retry_max_wait", envKey("PIPELINE_FETCH_RETRY_MAX_WAIT"))
		assert.Equal(t, "server.port", envKey("PIPELINE_SERVER_PORT"))
		assert.Equal(t, "debug", envKey("PIPELINE_DEBUG"))
		assert.Equal(t, "", envKey("PIPELINE_"))
	})
}
