package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Validator is implemented by config structs that check cross-field rules
// after parsing.
type Validator interface {
	Validate() error
}

var dotenvOnce sync.Once

// Load parses environment variables into a new T. The .env files are read
// once per process; a missing file is not an error. When T implements
// Validator its Validate method runs after parsing.
//
// Example:
//
//	type StorageConfig struct {
//		Kind string `env:"STORAGE_KIND" envDefault:"local"`
//	}
//
//	cfg, err := config.Load[StorageConfig]()
func Load[T any](envFiles ...string) (T, error) {
	dotenvOnce.Do(func() {
		// Missing .env files are normal outside development.
		_ = godotenv.Load(envFiles...)
	})

	cfg, err := env.ParseAs[T]()
	if err != nil {
		var zero T
		return zero, errors.Join(ErrParsingConfig, err)
	}

	if v, ok := any(&cfg).(Validator); ok {
		if err := v.Validate(); err != nil {
			var zero T
			return zero, errors.Join(ErrInvalidConfig, err)
		}
	}

	return cfg, nil
}

// MustLoad works like Load but panics on failure.
func MustLoad[T any](envFiles ...string) T {
	cfg, err := Load[T](envFiles...)
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return cfg
}
