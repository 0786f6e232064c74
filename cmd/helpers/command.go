package helpers

import (
	"fmt"
	"os"
	"time"

	"github.com/zinc-sig/robotharness/cmd/config"
	"github.com/zinc-sig/robotharness/internal/settings"
	"github.com/zinc-sig/robotharness/internal/upload"
)

// ParseTimeout parses and validates a timeout duration string. An empty
// string means no timeout.
func ParseTimeout(timeoutStr string) (time.Duration, error) {
	if timeoutStr == "" {
		return 0, nil
	}

	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout duration: %w", err)
	}

	if timeout <= 0 {
		return 0, fmt.Errorf("timeout must be positive")
	}

	return timeout, nil
}

// BuildContext builds the context attached to results from all sources
func BuildContext(cfg *config.ContextConfig) (any, error) {
	ctx, err := settings.Sources{
		EnvPrefix: settings.ContextPrefix,
		File:      cfg.File,
		JSON:      cfg.JSON,
		Pairs:     cfg.KV,
	}.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build context: %w", err)
	}
	return ctx, nil
}

// Artifacts is the resolved set of artifact files for one run.
type Artifacts struct {
	Expected, Actual, Diff string // local paths, possibly temporary
	uploads                map[string]string
	temps                  []string
}

// ResolveArtifacts maps each "local[:remote]" flag to a local path. With an
// upload provider, a flag without a local part is written to a temporary
// file; without one, it is the local path itself. Cleanup removes the
// temporary files.
func ResolveArtifacts(cfg *config.ArtifactConfig, hasProvider bool) (*Artifacts, error) {
	a := &Artifacts{uploads: make(map[string]string)}
	for _, f := range []struct {
		name, flag string
		dst        *string
	}{
		{"expected", cfg.Expected, &a.Expected},
		{"actual", cfg.Actual, &a.Actual},
		{"diff", cfg.Diff, &a.Diff},
	} {
		if f.flag == "" {
			continue
		}
		local, remote := upload.ParsePath(f.flag)
		if !hasProvider {
			*f.dst = local
			if local == "" {
				*f.dst = remote
			}
			continue
		}
		if local == "" {
			tmp, err := os.CreateTemp("", fmt.Sprintf("robotharness-%s-*.txt", f.name))
			if err != nil {
				a.Cleanup()
				return nil, fmt.Errorf("failed to create temp %s file: %w", f.name, err)
			}
			local = tmp.Name()
			_ = tmp.Close()
			// Only written on success or mismatch
			_ = os.Remove(local)
			a.temps = append(a.temps, local)
		}
		*f.dst = local
		a.uploads[local] = remote
	}
	return a, nil
}

// Uploads lists the artifacts that exist on disk and have a remote path.
func (a *Artifacts) Uploads() []upload.Artifact {
	var out []upload.Artifact
	for _, local := range []string{a.Expected, a.Actual, a.Diff} {
		remote, ok := a.uploads[local]
		if !ok {
			continue
		}
		if _, err := os.Stat(local); err != nil {
			continue
		}
		out = append(out, upload.Artifact{Local: local, Remote: remote})
	}
	return out
}

// Remote returns the remote path for a local artifact, or the local path when
// it is not uploaded.
func (a *Artifacts) Remote(local string) string {
	if r, ok := a.uploads[local]; ok {
		return r
	}
	return local
}

// Cleanup removes temporary artifact files
func (a *Artifacts) Cleanup() {
	for _, p := range a.temps {
		_ = os.Remove(p)
	}
}
