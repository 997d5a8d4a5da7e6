// Package cli wires the watch service into a command-line entrypoint.
package cli

import (
	"context"
	"os"

	"github.com/RegisGraptin/whalewatch/internal/whalewatch"

	"github.com/urfave/cli/v3"
)

// Run initializes and executes the whalewatch CLI application.
//
// It registers the `watch` command, which runs one bounded watch over the
// configured token contract and reports what it saw.
func Run(ctx context.Context, ww whalewatch.Service) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "whalewatch",
		Description:           "Command-line interface for watching high-value token transfers and minting whale tokens.",
		Usage:                 "whalewatch [command] [flags]",
		Commands: []*cli.Command{
			watchCommand(ww),
		},
	}

	return app.Run(ctx, os.Args)
}
