package file

import (
	"context"
	"fmt"
)

const (
	KindLocal = "local"
	KindS3    = "s3"
)

// Config selects and configures the storage backend.
type Config struct {
	Kind string `env:"STORAGE_KIND" envDefault:"local"`

	LocalDir       string `env:"STORAGE_LOCAL_DIR" envDefault:"/data/files"`
	LocalNamespace string `env:"STORAGE_LOCAL_NAMESPACE" envDefault:"chat-files"`
	LocalPublicURL string `env:"STORAGE_LOCAL_PUBLIC_URL" envDefault:"http://localhost:8080"`
	SigningSecret  string `env:"STORAGE_SIGNING_SECRET"`

	S3Bucket         string `env:"S3_BUCKET" envDefault:"chat-files"`
	S3Region         string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint       string `env:"S3_ENDPOINT"`
	S3PublicEndpoint string `env:"S3_PUBLIC_ENDPOINT"`
	S3AccessKey      string `env:"S3_ACCESS_KEY"`
	S3SecretKey      string `env:"S3_SECRET_KEY"`
	S3ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"true"`
}

// Validate checks the backend-specific required settings.
func (c *Config) Validate() error {
	switch c.Kind {
	case KindLocal:
		if c.SigningSecret == "" {
			return fmt.Errorf("%w: STORAGE_SIGNING_SECRET is required for local storage", ErrInvalidConfig)
		}
	case KindS3:
		if c.S3Bucket == "" || c.S3Region == "" {
			return fmt.Errorf("%w: S3_BUCKET and S3_REGION are required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown STORAGE_KIND %q", ErrInvalidConfig, c.Kind)
	}
	return nil
}

// New builds the backend selected by cfg.Kind. It does not touch the
// network; call EnsureNamespace afterwards.
func New(ctx context.Context, cfg Config, opts ...S3Option) (Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case KindS3:
		return NewS3Storage(ctx, S3Config{
			Bucket:         cfg.S3Bucket,
			Region:         cfg.S3Region,
			AccessKeyID:    cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			Endpoint:       cfg.S3Endpoint,
			PublicEndpoint: cfg.S3PublicEndpoint,
			ForcePathStyle: cfg.S3ForcePathStyle,
		}, opts...)
	default:
		return NewLocalStorage(cfg.LocalDir, cfg.LocalNamespace, cfg.LocalPublicURL, []byte(cfg.SigningSecret))
	}
}
