// Package main (in watermark-subfolder) provides the command line version of the app
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/UnendingLoop/Watermarker/internal/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
