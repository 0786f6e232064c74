package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zinc-sig/robotharness/robot"
)

type Status string

const (
	StatusSuccess  Status = "success"
	StatusMismatch Status = "mismatch"
	StatusFailed   Status = "failed"
	StatusTimeout  Status = "timeout"
)

type Config struct {
	Script  string
	Client  robot.ClientFunc
	Timeout time.Duration

	// Optional artifact paths. The diff is only written on a mismatch.
	ExpectedFile string
	ActualFile   string
	DiffFile     string

	Verbose bool
	DryRun  bool

	// Log receives the banners printed in verbose and dry-run mode.
	// Defaults to os.Stderr.
	Log io.Writer
}

type Result struct {
	Status        Status
	Expected      string
	Actual        string
	Diff          string
	Err           error
	ExecutionTime time.Duration
}

// ErrorString returns the engine failure, if any, as text.
func (r *Result) ErrorString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Execute runs one script on eng. Engine failures are reported through the
// result's Status and Err; the returned error covers artifact I/O only.
func Execute(ctx context.Context, eng robot.Engine, config *Config) (*Result, error) {
	w := config.Log
	if w == nil {
		w = os.Stderr
	}
	if config.Verbose || config.DryRun {
		PrintPreExecution(w, config)
	}

	if config.DryRun {
		result := &Result{Status: StatusSuccess}
		PrintPostExecution(w, result, true)
		return result, nil
	}

	startTime := time.Now()
	res, err := eng.Execute(ctx, config.Script, config.Client, config.Timeout)
	result := &Result{ExecutionTime: time.Since(startTime)}

	switch {
	case errors.Is(err, robot.ErrTimeout):
		result.Status = StatusTimeout
		result.Err = err
	case err != nil:
		result.Status = StatusFailed
		result.Err = err
	case res == nil:
		result.Status = StatusFailed
		result.Err = fmt.Errorf("engine returned no result for %s", config.Script)
	default:
		defer res.Release()
		result.Expected = res.Expected
		result.Actual = res.Actual
		if res.Matches() {
			result.Status = StatusSuccess
		} else {
			result.Status = StatusMismatch
			result.Diff = UnifiedDiff(res.Expected, res.Actual, "expected", "actual")
		}
	}

	if err := writeArtifacts(config, result); err != nil {
		return nil, err
	}

	if config.Verbose {
		PrintPostExecution(w, result, false)
	}
	return result, nil
}

func writeArtifacts(config *Config, result *Result) error {
	if result.Status == StatusFailed || result.Status == StatusTimeout {
		return nil
	}
	if err := writeFile(config.ExpectedFile, result.Expected); err != nil {
		return fmt.Errorf("failed to write expected script: %w", err)
	}
	if err := writeFile(config.ActualFile, result.Actual); err != nil {
		return fmt.Errorf("failed to write actual script: %w", err)
	}
	if result.Status == StatusMismatch {
		if err := writeFile(config.DiffFile, result.Diff); err != nil {
			return fmt.Errorf("failed to write diff: %w", err)
		}
	}
	return nil
}

func writeFile(path, content string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
