package filesvc

import (
	"fmt"
	"time"
)

type Config struct {
	StorageTimeout  time.Duration `env:"FILES_STORAGE_TIMEOUT" envDefault:"30s"`
	MetadataTimeout time.Duration `env:"FILES_METADATA_TIMEOUT" envDefault:"5s"`
	PresignTTL      time.Duration `env:"FILES_PRESIGN_TTL" envDefault:"1h"`
	// SpoolDir holds uploads while they are hashed. Empty means os.TempDir.
	SpoolDir string `env:"FILES_SPOOL_DIR"`
}

func (c *Config) Validate() error {
	if c.StorageTimeout <= 0 || c.MetadataTimeout <= 0 {
		return fmt.Errorf("%w: storage and metadata timeouts must be positive", ErrInvalidConfig)
	}
	if c.PresignTTL <= 0 {
		return fmt.Errorf("%w: presign ttl must be positive", ErrInvalidConfig)
	}
	return nil
}
