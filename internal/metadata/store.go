package metadata

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config selects the metadata backend.
type Config struct {
	Driver string `env:"METADATA_DRIVER" envDefault:"postgres"`
}

func (c *Config) Validate() error {
	if c.Driver != DriverPostgres && c.Driver != DriverMemory {
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
	}
	return nil
}

// New returns the Store for cfg.Driver. pool is only used by the postgres
// driver and may be nil otherwise.
func New(cfg Config, pool *pgxpool.Pool) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Driver == DriverMemory {
		return NewMemoryStore(), nil
	}
	if pool == nil {
		return nil, fmt.Errorf("%w: postgres driver needs a connection pool", ErrUnknownDriver)
	}
	return NewPostgresStore(pool), nil
}
