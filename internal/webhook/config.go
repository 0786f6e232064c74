package webhook

import (
	"fmt"
	"strings"
	"time"

	"github.com/zinc-sig/robotharness/internal/settings"
)

// Authentication types.
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthAPIKey = "api-key"
)

// Config holds webhook endpoint configuration
type Config struct {
	URL       string            // Webhook endpoint URL
	Method    string            // HTTP method (default: POST)
	Headers   map[string]string // Custom headers
	Timeout   time.Duration     // Overall timeout for all retries
	AuthType  string            // none, bearer or api-key
	AuthToken string
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries   int           // Maximum retry attempts (default: 3)
	InitialDelay time.Duration // Initial delay between retries (default: 1s)
	MaxDelay     time.Duration // Maximum delay (default: 30s)
	Multiplier   float64       // Backoff multiplier (default: 2.0)
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

var methods = map[string]bool{"GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true}

// FromSettings converts a settings map (keys url, method, headers, timeout,
// auth_type, auth_token, retries, retry_delay) into client configuration.
// Both results are nil when no url is configured.
func FromSettings(m map[string]any) (*Config, *RetryConfig, error) {
	url := settings.String(m, "url")
	if url == "" {
		return nil, nil, nil
	}

	config := &Config{
		URL:       url,
		Method:    strings.ToUpper(settings.String(m, "method")),
		Timeout:   30 * time.Second,
		AuthType:  settings.String(m, "auth_type"),
		AuthToken: settings.String(m, "auth_token"),
	}
	if config.Method == "" {
		config.Method = "POST"
	}
	if !methods[config.Method] {
		return nil, nil, fmt.Errorf("unsupported webhook method: %s", config.Method)
	}

	switch config.AuthType {
	case "":
		config.AuthType = AuthNone
	case AuthNone, AuthBearer, AuthAPIKey:
	default:
		return nil, nil, fmt.Errorf("unsupported webhook auth type: %s", config.AuthType)
	}

	if h, ok := m["headers"].(map[string]any); ok {
		config.Headers = make(map[string]string, len(h))
		for k := range h {
			config.Headers[k] = settings.String(h, k)
		}
	}

	var err error
	if s := settings.String(m, "timeout"); s != "" {
		if config.Timeout, err = time.ParseDuration(s); err != nil {
			return nil, nil, fmt.Errorf("invalid webhook timeout duration: %w", err)
		}
	}

	retry := DefaultRetryConfig()
	if s := settings.String(m, "retry_delay"); s != "" {
		if retry.InitialDelay, err = time.ParseDuration(s); err != nil {
			return nil, nil, fmt.Errorf("invalid webhook retry delay: %w", err)
		}
	}
	switch r := m["retries"].(type) {
	case int:
		retry.MaxRetries = r
	case float64:
		retry.MaxRetries = int(r)
	}
	if retry.MaxRetries < 0 {
		return nil, nil, fmt.Errorf("webhook retries must not be negative")
	}

	return config, retry, nil
}
