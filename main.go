package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrlokans/clippings-sync/internal/cli"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.BuildInfo{Version: Version, Commit: Commit}, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
