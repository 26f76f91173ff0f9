// Package config loads typed configuration from the environment.
//
// It wraps github.com/joho/godotenv (optional .env files, loaded once per
// process) and github.com/caarlos0/env/v11 (struct tag parsing). Config
// structs that implement Validator get their cross-field rules checked right
// after parsing, so a misconfigured deployment fails at startup.
//
//	cfg, err := config.Load[appConfig]()
//	if err != nil {
//		return err
//	}
//
// Errors wrap ErrParsingConfig or ErrInvalidConfig and can be matched with
// errors.Is.
package config
