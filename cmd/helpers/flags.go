package helpers

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zinc-sig/robotharness/cmd/config"
	"github.com/zinc-sig/robotharness/robot/control"
)

// SetupContextFlags adds context-related flags to a command
func SetupContextFlags(cmd *cobra.Command, cfg *config.ContextConfig) {
	cmd.Flags().StringVar(&cfg.JSON, "context", "", "Context data as JSON string")
	cmd.Flags().StringArrayVar(&cfg.KV, "context-kv", nil, "Context key=value pairs (can be used multiple times)")
	cmd.Flags().StringVar(&cfg.File, "context-file", "", "Path to JSON file containing context data")
}

// SetupUploadFlags adds upload-related flags to a command
func SetupUploadFlags(cmd *cobra.Command, cfg *config.UploadConfig) {
	cmd.Flags().StringVar(&cfg.Provider, "upload-provider", "", "Upload provider type (minio, local)")
	cmd.Flags().StringVar(&cfg.Config, "upload-config", "", "Upload configuration as JSON string")
	cmd.Flags().StringArrayVar(&cfg.ConfigKV, "upload-config-kv", nil, "Upload config key=value pairs (can be used multiple times)")
	cmd.Flags().StringVar(&cfg.ConfigFile, "upload-config-file", "", "Path to JSON file containing upload configuration")
}

// SetupCommonFlags adds commonly used flags to a command
func SetupCommonFlags(cmd *cobra.Command, flags *config.CommonFlags) {
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Print execution details to stderr")
	cmd.Flags().StringVarP(&flags.TimeoutStr, "timeout", "t", "", "Script timeout (e.g., 10s, 2m); none when unset")
	cmd.Flags().IntVar(&flags.Score, "score", 0, "Optional score integer (reported if the run succeeds)")
}

// SetupDryRunFlag adds the dry-run flag to a command
func SetupDryRunFlag(cmd *cobra.Command, flags *config.CommonFlags) {
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Print what would be executed without contacting the robot")
}

// SetupControlFlag adds the robot control address flag. The default comes
// from ROBOT_CONTROL_ADDR.
func SetupControlFlag(cmd *cobra.Command, addr *string) {
	def := os.Getenv("ROBOT_CONTROL_ADDR")
	if def == "" {
		def = control.DefaultAddress
	}
	cmd.Flags().StringVar(addr, "control", def, "Robot control address (tcp://host:port)")
}

// SetupWebhookFlags adds webhook-related flags to a command
func SetupWebhookFlags(cmd *cobra.Command, cfg *config.WebhookConfig) {
	cmd.Flags().StringVar(&cfg.URL, "webhook-url", "", "Webhook URL to send results to")
	cmd.Flags().StringVar(&cfg.Method, "webhook-method", "POST", "HTTP method to use: GET, POST, PUT, PATCH, DELETE")
	cmd.Flags().StringVar(&cfg.AuthType, "webhook-auth-type", "none", "Authentication type: none, bearer, api-key")
	cmd.Flags().StringVar(&cfg.AuthToken, "webhook-auth-token", "", "Authentication token (use with --webhook-auth-type)")
	cmd.Flags().IntVar(&cfg.Retries, "webhook-retries", 3, "Maximum webhook retry attempts (0 = no retries)")
	cmd.Flags().StringVar(&cfg.RetryDelay, "webhook-retry-delay", "1s", "Initial delay between webhook retries")
	cmd.Flags().StringVar(&cfg.Timeout, "webhook-timeout", "30s", "Total timeout for webhook including retries")

	cmd.Flags().StringVar(&cfg.Config, "webhook-config", "", "Webhook configuration as JSON string")
	cmd.Flags().StringArrayVar(&cfg.ConfigKV, "webhook-config-kv", nil, "Webhook config key=value pairs (can be used multiple times)")
	cmd.Flags().StringVar(&cfg.ConfigFile, "webhook-config-file", "", "Path to JSON file containing webhook configuration")
}

// SetupArtifactFlags adds the expected/actual/diff artifact flags
func SetupArtifactFlags(cmd *cobra.Command, cfg *config.ArtifactConfig) {
	cmd.Flags().StringVarP(&cfg.Expected, "expected-out", "x", "", "Write the expected script to this path (local[:remote])")
	cmd.Flags().StringVarP(&cfg.Actual, "actual-out", "a", "", "Write the actual script to this path (local[:remote])")
	cmd.Flags().StringVar(&cfg.Diff, "diff-out", "", "Write a unified diff on mismatch to this path (local[:remote])")
}
