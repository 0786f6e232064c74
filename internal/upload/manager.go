package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ProviderFactory is a function that creates a new provider instance
type ProviderFactory func() Provider

// Registry holds all available upload providers
var Registry = make(map[string]ProviderFactory)

// RegisterProvider registers a new upload provider
func RegisterProvider(name string, factory ProviderFactory) {
	Registry[name] = factory
}

// NewProvider creates a new provider instance by name
func NewProvider(name string) (Provider, error) {
	factory, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown upload provider: %s (available: %s)", name, strings.Join(Names(), ", "))
	}
	return factory(), nil
}

// Names lists the registered providers in sorted order.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterProvider("minio", func() Provider { return NewMinioProvider() })
	RegisterProvider("local", func() Provider { return NewLocalProvider() })
}

// Artifact maps a local file to the path it is uploaded to.
type Artifact struct {
	Local  string
	Remote string
}

// ParsePath splits an artifact flag of the form "local:remote". Without a
// colon the whole value is the remote path and local is empty, meaning the
// caller writes to a temporary file.
func ParsePath(path string) (local, remote string) {
	if l, r, ok := strings.Cut(path, ":"); ok {
		return strings.TrimSpace(l), strings.TrimSpace(r)
	}
	return "", strings.TrimSpace(path)
}

// UploadAll uploads every artifact in order, stopping at the first failure.
// Progress lines go to w when it is not nil.
func UploadAll(ctx context.Context, p Provider, artifacts []Artifact, w io.Writer) error {
	for _, a := range artifacts {
		if err := uploadFile(ctx, p, a); err != nil {
			return err
		}
		if w != nil {
			fmt.Fprintf(w, "[UPLOAD] %s -> %s\n", a.Local, a.Remote)
		}
	}
	return nil
}

func uploadFile(ctx context.Context, p Provider, a Artifact) error {
	f, err := os.Open(a.Local)
	if err != nil {
		return fmt.Errorf("failed to open %s for upload: %w", a.Local, err)
	}
	defer func() { _ = f.Close() }()

	if err := p.Upload(ctx, f, a.Remote); err != nil {
		return fmt.Errorf("failed to upload to %s: %w", a.Remote, err)
	}
	return nil
}
