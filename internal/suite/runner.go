package suite

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zinc-sig/robotharness/internal/logging"
	"github.com/zinc-sig/robotharness/internal/runner"
	"github.com/zinc-sig/robotharness/robot"
)

// EngineFactory returns a fresh engine for one worker.
type EngineFactory func() (robot.Engine, error)

// Outcome is the result of one manifest entry.
type Outcome struct {
	Entry   Entry
	Script  string
	Timeout time.Duration
	Result  *runner.Result
}

// Options tune Run.
type Options struct {
	// Parallel bounds concurrent scripts. Values below 1 mean 1.
	Parallel int
	// Artifacts, when set, names the directory expected, actual and diff
	// files are written to, one subdirectory per script.
	Artifacts string
	Verbose   bool
	// Log receives verbose output. Defaults to os.Stderr.
	Log io.Writer
	// Done is called as each script finishes, from the worker goroutine.
	Done func(o Outcome)
}

// Run executes every script in m and returns outcomes in manifest order.
// Script failures are reported in the outcomes; the error covers manifest
// and engine setup problems.
func Run(ctx context.Context, m *Manifest, newEngine EngineFactory, opts Options) ([]Outcome, error) {
	limit := opts.Parallel
	if limit < 1 {
		limit = 1
	}

	// Resolve every script before any worker starts
	paths := make([]string, len(m.Scripts))
	for i, e := range m.Scripts {
		path, err := m.Path(e)
		if err != nil {
			return nil, fmt.Errorf("script %s: %w", e.Name, err)
		}
		paths[i] = path
	}

	outcomes := make([]Outcome, len(m.Scripts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, e := range m.Scripts {
		path := paths[i]
		timeout := m.TimeoutFor(e)

		g.Go(func() error {
			eng, err := newEngine()
			if err != nil {
				return fmt.Errorf("failed to create engine for %s: %w", e.Name, err)
			}

			config := &runner.Config{
				Script:  path,
				Timeout: timeout,
				Verbose: opts.Verbose,
				Log:     opts.Log,
			}
			if opts.Artifacts != "" {
				config.ExpectedFile, config.ActualFile, config.DiffFile = ArtifactPaths(opts.Artifacts, e.Name)
			}

			logging.Logger.Debug("suite script started", "suite", m.Name, "script", path)
			res, err := runner.Execute(ctx, eng, config)
			if err != nil {
				return fmt.Errorf("script %s: %w", e.Name, err)
			}
			logging.Logger.Debug("suite script finished", "suite", m.Name, "script", path, "status", res.Status)

			outcomes[i] = Outcome{Entry: e, Script: path, Timeout: timeout, Result: res}
			if opts.Done != nil {
				opts.Done(outcomes[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// ArtifactPaths returns where Run writes the artifacts of the named script
// under dir.
func ArtifactPaths(dir, name string) (expected, actual, diff string) {
	base := filepath.Join(dir, name)
	return filepath.Join(base, "expected.txt"), filepath.Join(base, "actual.txt"), filepath.Join(base, "diff.txt")
}
