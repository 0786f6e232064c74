package config

import "time"

// ContextConfig holds context-related flags
type ContextConfig struct {
	JSON string
	KV   []string
	File string
}

// UploadConfig holds upload-related flags
type UploadConfig struct {
	Provider   string
	Config     string
	ConfigKV   []string
	ConfigFile string
}

// CommonFlags holds commonly used flags across commands
type CommonFlags struct {
	Verbose    bool
	DryRun     bool
	TimeoutStr string
	Timeout    time.Duration
	Score      int
	ScoreSet   bool
}

// WebhookConfig holds webhook-related flags
type WebhookConfig struct {
	URL        string
	Method     string // GET, POST, PUT, PATCH or DELETE
	AuthType   string
	AuthToken  string
	Timeout    string
	Retries    int
	RetryDelay string

	// Alternative configuration sources, below the direct flags in precedence
	Config     string   // JSON string configuration
	ConfigKV   []string // Key-value pairs
	ConfigFile string   // Path to JSON config file
}

// ArtifactConfig holds the artifact path flags of the run command. Each
// value is "local:remote" or, with an upload provider, just "remote".
type ArtifactConfig struct {
	Expected string
	Actual   string
	Diff     string
}
