// Package main resolves a single offline 4dF check from the command line.
package main

import (
	"context"
	"flag"
	"os"

	rollcmd "github.com/fatexengine/fatex/internal/cmd/roll"
	"github.com/fatexengine/fatex/internal/platform/config"
)

func main() {
	cfg, err := rollcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := rollcmd.Run(context.Background(), cfg, os.Stdout); err != nil {
		config.Exitf("resolve check: %v", err)
	}
}
