// Package config loads process configuration from FATEX_-prefixed
// environment variables and provides the shared fatal-exit helper for
// command entry points.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables into target,
// which must be a pointer to a struct with `env` tags.
func ParseEnv(target any) error {
	if target == nil {
		return errors.New("config target is required")
	}
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
