// Package table parses table command flags and composes the shared-table
// server entrypoint.
package table

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/fatexengine/fatex/internal/platform/cmd"
	server "github.com/fatexengine/fatex/internal/services/table/app"
)

// Config holds table command configuration.
type Config struct {
	HTTPAddr    string `env:"FATEX_TABLE_HTTP_ADDR"    envDefault:":8080"`
	StoragePath string `env:"FATEX_TABLE_STORAGE_PATH" envDefault:"table.db"`
	Locale      string `env:"FATEX_TABLE_LOCALE"       envDefault:"en-US"`
	DiceSeed    int64  `env:"FATEX_TABLE_DICE_SEED"`
	ReplayLimit int    `env:"FATEX_TABLE_REPLAY_LIMIT" envDefault:"200"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "table HTTP listen address")
	fs.StringVar(&cfg.StoragePath, "storage-path", cfg.StoragePath, "transcript SQLite database path")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "ladder and template locale")
	fs.Int64Var(&cfg.DiceSeed, "dice-seed", cfg.DiceSeed, "dice seed, 0 seeds from the clock")
	fs.IntVar(&cfg.ReplayLimit, "replay-limit", cfg.ReplayLimit, "transcript entries replayed on join")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the table app and serves the frame protocol until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTable, func(context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr:    cfg.HTTPAddr,
			StoragePath: cfg.StoragePath,
			Locale:      cfg.Locale,
			DiceSeed:    cfg.DiceSeed,
			ReplayLimit: cfg.ReplayLimit,
		}); err != nil {
			return fmt.Errorf("serve table: %w", err)
		}
		return nil
	})
}
