// Package main starts the shared-table service and handles termination.
//
// The process serves one table: a persistent chat transcript, an aspect
// tracker whose entries update in place, and 4dF check resolution, all over
// a JSON WebSocket frame protocol.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	tablecmd "github.com/fatexengine/fatex/internal/cmd/table"
)

func main() {
	cfg, err := tablecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[TABLE] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tablecmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
