// Package roll parses roll command flags and resolves one offline check.
package roll

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatexengine/fatex/internal/fate/dice"
	"github.com/fatexengine/fatex/internal/fate/item"
	"github.com/fatexengine/fatex/internal/fate/ladder"
	fateroll "github.com/fatexengine/fatex/internal/fate/roll"
	entrypoint "github.com/fatexengine/fatex/internal/platform/cmd"
)

// Config holds roll command configuration.
type Config struct {
	Kind     string `env:"FATEX_ROLL_KIND"   envDefault:"skill"`
	Name     string `env:"FATEX_ROLL_NAME"`
	Rank     int    `env:"FATEX_ROLL_RANK"`
	Modifier string `env:"FATEX_ROLL_MODIFIER"`
	Locale   string `env:"FATEX_ROLL_LOCALE" envDefault:"en-US"`
	Seed     int64  `env:"FATEX_ROLL_SEED"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Kind, "kind", cfg.Kind, "item kind: attribute, skill, or resource")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "item name")
	fs.IntVar(&cfg.Rank, "rank", cfg.Rank, "item rank on the ladder")
	fs.StringVar(&cfg.Modifier, "modifier", cfg.Modifier, "signed integer modifier, e.g. +2")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "ladder label locale")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "dice seed, 0 seeds from the clock")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run resolves one 4dF check and writes the outcome to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}
	if err := ladder.Validate(cfg.Locale); err != nil {
		return err
	}

	kind, err := item.ParseKind(cfg.Kind)
	if err != nil {
		return err
	}
	rollable, err := item.New(kind, cfg.Name, cfg.Rank)
	if err != nil {
		return err
	}
	modifier, err := fateroll.ParseModifier(cfg.Modifier)
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rolled := dice.Roll(dice.RollRequest{Seed: seed})

	grandTotal := rolled.RawTotal + rollable.Rank + modifier
	label, err := ladder.Label(cfg.Locale, grandTotal)
	if err != nil {
		return err
	}

	faces := make([]string, 0, len(rolled.Dice))
	for _, die := range rolled.Dice {
		faces = append(faces, die.Face)
	}

	fmt.Fprintf(out, "%s (%s)\n", rollable.Name, ladder.FormatSigned(rollable.Rank))
	fmt.Fprintf(out, "dice: [%s] = %s\n", strings.Join(faces, " "), ladder.FormatSigned(rolled.RawTotal))
	if modifier != 0 {
		fmt.Fprintf(out, "modifier: %s\n", ladder.FormatSigned(modifier))
	}
	fmt.Fprintf(out, "total: %s (%s)\n", ladder.FormatSigned(grandTotal), label)
	return nil
}
