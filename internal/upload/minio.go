package upload

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/zinc-sig/robotharness/internal/settings"
)

// MinioProvider implements the Provider interface for MinIO/S3 storage
type MinioProvider struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioProvider creates a new MinioProvider
func NewMinioProvider() *MinioProvider {
	return &MinioProvider{}
}

func (m *MinioProvider) Name() string {
	return "minio"
}

type minioConfig struct {
	endpoint  string
	accessKey string
	secretKey string
	bucket    string
	region    string
	prefix    string
	secure    bool
}

// parseMinioConfig validates the settings map. An http:// or https:// scheme
// on the endpoint decides "secure" on its own; otherwise "secure" defaults
// to true.
func parseMinioConfig(config map[string]any) (*minioConfig, error) {
	c := &minioConfig{
		endpoint:  settings.String(config, "endpoint"),
		accessKey: settings.String(config, "access_key"),
		secretKey: settings.String(config, "secret_key"),
		bucket:    settings.String(config, "bucket"),
		region:    settings.String(config, "region"),
		prefix:    settings.String(config, "prefix"),
		secure:    true,
	}
	for _, req := range []struct{ key, val string }{
		{"endpoint", c.endpoint},
		{"access_key", c.accessKey},
		{"secret_key", c.secretKey},
		{"bucket", c.bucket},
	} {
		if req.val == "" {
			return nil, fmt.Errorf("minio: %s is required", req.key)
		}
	}
	if c.region == "" {
		c.region = "us-east-1"
	}
	if _, ok := config["secure"]; ok {
		c.secure = settings.Bool(config, "secure")
	}

	if strings.Contains(c.endpoint, "://") {
		u, err := url.Parse(c.endpoint)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("minio: invalid endpoint URL: %s", c.endpoint)
		}
		switch u.Scheme {
		case "http":
			c.secure = false
		case "https":
			c.secure = true
		default:
			return nil, fmt.Errorf("minio: invalid endpoint URL: unsupported scheme %q", u.Scheme)
		}
		c.endpoint = u.Host
	}
	return c, nil
}

// Configure creates the client and checks that the bucket exists.
func (m *MinioProvider) Configure(config map[string]any) error {
	c, err := parseMinioConfig(config)
	if err != nil {
		return err
	}

	client, err := minio.New(c.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.accessKey, c.secretKey, ""),
		Secure: c.secure,
		Region: c.region,
	})
	if err != nil {
		return fmt.Errorf("minio: failed to create client: %w", err)
	}

	exists, err := client.BucketExists(context.Background(), c.bucket)
	if err != nil {
		return fmt.Errorf("minio: failed to check bucket existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("minio: bucket %s does not exist", c.bucket)
	}

	m.client = client
	m.bucket = c.bucket
	m.prefix = c.prefix
	return nil
}

// objectName joins the configured prefix and remotePath with forward slashes.
func (m *MinioProvider) objectName(remotePath string) string {
	if m.prefix == "" {
		return remotePath
	}
	return path.Join(m.prefix, remotePath)
}

func (m *MinioProvider) Upload(ctx context.Context, reader io.Reader, remotePath string) error {
	if m.client == nil {
		return fmt.Errorf("minio: provider not configured")
	}

	objectName := m.objectName(remotePath)
	// -1: unknown size, streamed as multipart
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, -1, minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		return fmt.Errorf("minio: failed to upload to %s: %w", objectName, err)
	}
	return nil
}
