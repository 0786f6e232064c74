package helpers

import (
	"fmt"
	"io"

	"github.com/zinc-sig/robotharness/cmd/config"
	"github.com/zinc-sig/robotharness/internal/settings"
	"github.com/zinc-sig/robotharness/internal/webhook"
)

// BuildWebhookConfig builds webhook configuration from all sources.
// Precedence: env < file < json < kv < direct flags that differ from their
// defaults.
func BuildWebhookConfig(cfg *config.WebhookConfig) (map[string]any, error) {
	conf, err := settings.Sources{
		EnvPrefix: settings.WebhookPrefix,
		File:      cfg.ConfigFile,
		JSON:      cfg.Config,
		Pairs:     cfg.ConfigKV,
	}.Map()
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook config: %w", err)
	}

	if cfg.URL != "" {
		conf["url"] = cfg.URL
	}
	if cfg.Method != "" && cfg.Method != "POST" {
		conf["method"] = cfg.Method
	}
	if cfg.AuthType != "" && cfg.AuthType != webhook.AuthNone {
		conf["auth_type"] = cfg.AuthType
	}
	if cfg.AuthToken != "" {
		conf["auth_token"] = cfg.AuthToken
	}
	if cfg.Timeout != "" && cfg.Timeout != "30s" {
		conf["timeout"] = cfg.Timeout
	}
	if cfg.Retries != 3 {
		conf["retries"] = cfg.Retries
	}
	if cfg.RetryDelay != "" && cfg.RetryDelay != "1s" {
		conf["retry_delay"] = cfg.RetryDelay
	}

	return conf, nil
}

// NewWebhookClient returns a client for the configured webhook, or nil when
// no webhook URL is configured anywhere.
func NewWebhookClient(cfg *config.WebhookConfig, verbose bool, errOut io.Writer) (*webhook.Client, error) {
	conf, err := BuildWebhookConfig(cfg)
	if err != nil {
		return nil, err
	}
	hookConfig, retryConfig, err := webhook.FromSettings(conf)
	if err != nil {
		return nil, err
	}
	if hookConfig == nil {
		return nil, nil
	}
	if verbose {
		fmt.Fprintf(errOut, "[WEBHOOK] Sending to %s\n", hookConfig.URL)
	}
	return webhook.NewClient(hookConfig, retryConfig, verbose, webhook.WithOutput(errOut)), nil
}
