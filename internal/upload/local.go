package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zinc-sig/robotharness/internal/settings"
)

// LocalProvider copies artifacts into a directory tree.
type LocalProvider struct {
	root string
}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Name() string {
	return "local"
}

// Configure requires "root", the directory remote paths are resolved in.
func (l *LocalProvider) Configure(config map[string]any) error {
	root := settings.String(config, "root")
	if root == "" {
		return fmt.Errorf("local: root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("local: %w", err)
	}
	l.root = abs
	return nil
}

func (l *LocalProvider) Upload(ctx context.Context, reader io.Reader, remotePath string) error {
	if l.root == "" {
		return fmt.Errorf("local: provider not configured")
	}
	dst := filepath.Join(l.root, filepath.FromSlash(remotePath))
	if dst != l.root && !strings.HasPrefix(dst, l.root+string(filepath.Separator)) {
		return fmt.Errorf("local: %s escapes %s", remotePath, l.root)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("local: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("local: %w", err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		_ = f.Close()
		return fmt.Errorf("local: failed to write %s: %w", dst, err)
	}
	return f.Close()
}
