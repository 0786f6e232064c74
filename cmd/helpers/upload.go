package helpers

import (
	"fmt"
	"io"

	"github.com/zinc-sig/robotharness/cmd/config"
	"github.com/zinc-sig/robotharness/internal/settings"
	"github.com/zinc-sig/robotharness/internal/upload"
)

// BuildUploadConfig builds upload configuration from all sources
func BuildUploadConfig(cfg *config.UploadConfig) (map[string]any, error) {
	conf, err := settings.Sources{
		EnvPrefix: settings.UploadPrefix,
		File:      cfg.ConfigFile,
		JSON:      cfg.Config,
		Pairs:     cfg.ConfigKV,
	}.Map()
	if err != nil {
		return nil, fmt.Errorf("failed to build upload config: %w", err)
	}
	return conf, nil
}

// SetupUploadProvider creates and configures an upload provider. It returns
// nil when no provider is requested.
func SetupUploadProvider(cfg *config.UploadConfig) (upload.Provider, map[string]any, error) {
	if cfg.Provider == "" {
		return nil, nil, nil
	}

	uploadConf, err := BuildUploadConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	provider, err := upload.NewProvider(cfg.Provider)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create upload provider: %w", err)
	}

	if err := provider.Configure(uploadConf); err != nil {
		return nil, nil, fmt.Errorf("failed to configure upload provider: %w", err)
	}

	return provider, uploadConf, nil
}

// PrintUploadInfo prints upload configuration in verbose mode
func PrintUploadInfo(w io.Writer, provider upload.Provider, conf map[string]any, artifacts *Artifacts) {
	banner(w, "Upload Configuration", false)
	fmt.Fprintf(w, "Provider:       %s\n", provider.Name())

	switch provider.Name() {
	case "minio":
		for _, key := range []string{"endpoint", "bucket", "prefix"} {
			if v := settings.String(conf, key); v != "" {
				fmt.Fprintf(w, "%-16s%s\n", key+":", v)
			}
		}
	case "local":
		fmt.Fprintf(w, "Root:           %s\n", settings.String(conf, "root"))
	}

	for _, pair := range []struct{ label, local string }{
		{"Expected Path:", artifacts.Expected},
		{"Actual Path:", artifacts.Actual},
		{"Diff Path:", artifacts.Diff},
	} {
		if pair.local != "" {
			fmt.Fprintf(w, "%-16s%s\n", pair.label, artifacts.Remote(pair.local))
		}
	}
	fmt.Fprintln(w, lightRule)
}
