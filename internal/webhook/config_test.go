package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSettings(t *testing.T) {
	t.Run("no url", func(t *testing.T) {
		config, retry, err := FromSettings(map[string]any{"method": "PUT"})
		require.NoError(t, err)
		assert.Nil(t, config)
		assert.Nil(t, retry)
	})

	t.Run("defaults", func(t *testing.T) {
		config, retry, err := FromSettings(map[string]any{"url": "http://grader/hook"})
		require.NoError(t, err)
		assert.Equal(t, &Config{
			URL:      "http://grader/hook",
			Method:   "POST",
			Timeout:  30 * time.Second,
			AuthType: AuthNone,
		}, config)
		assert.Equal(t, DefaultRetryConfig(), retry)
	})

	t.Run("everything set", func(t *testing.T) {
		config, retry, err := FromSettings(map[string]any{
			"url":         "http://grader/hook",
			"method":      "patch",
			"auth_type":   "bearer",
			"auth_token":  "secret",
			"timeout":     "5s",
			"retry_delay": "250ms",
			"retries":     float64(1),
			"headers":     map[string]any{"X-Course": "comp2012", "X-Attempt": float64(2)},
		})
		require.NoError(t, err)
		assert.Equal(t, "PATCH", config.Method)
		assert.Equal(t, AuthBearer, config.AuthType)
		assert.Equal(t, "secret", config.AuthToken)
		assert.Equal(t, 5*time.Second, config.Timeout)
		assert.Equal(t, map[string]string{"X-Course": "comp2012", "X-Attempt": "2"}, config.Headers)
		assert.Equal(t, 250*time.Millisecond, retry.InitialDelay)
		assert.Equal(t, 1, retry.MaxRetries)
	})

	errorCases := map[string]map[string]any{
		"bad method":      {"url": "http://x", "method": "TRACE"},
		"bad auth":        {"url": "http://x", "auth_type": "basic"},
		"bad timeout":     {"url": "http://x", "timeout": "soon"},
		"bad retry delay": {"url": "http://x", "retry_delay": "later"},
		"negative retry":  {"url": "http://x", "retries": -1},
	}
	for name, m := range errorCases {
		t.Run(name, func(t *testing.T) {
			_, _, err := FromSettings(m)
			assert.Error(t, err)
		})
	}
}
