package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RegisGraptin/whalewatch/internal/whalewatch"

	"github.com/urfave/cli/v3"
)

// pollStatusInterval is how often the command checks whether the watch has
// finished on its own.
const pollStatusInterval = time.Second

// watchCommand returns a CLI command that starts one bounded transfer watch
// and blocks until the watch reaches its poll limit or the process receives
// an interrupt. On interrupt the watch is stopped explicitly before the
// collected records are printed.
//
// Usage example:
//
//	whalewatch watch
func watchCommand(ww whalewatch.Service) *cli.Command {
	return &cli.Command{
		Name:        "watch",
		Description: "Watches the token contract for high-value transfers and mints a whale token to each sender.",
		Usage:       "Runs one bounded watch. Terminates after the poll limit or on Ctrl+C.",
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			defer close(quit)

			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			msg, err := ww.StartWatch(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Root().Writer, msg)

			ticker := time.NewTicker(pollStatusInterval)
			defer ticker.Stop()

		wait:
			for {
				select {
				case <-quit:
					msg, err := ww.StopWatch()
					if err != nil {
						// The watch may have finished between the signal and
						// the stop; nothing left to do then.
						break wait
					}
					fmt.Fprintln(c.Root().Writer, msg)
					break wait
				case <-ticker.C:
					if !ww.IsPolling() {
						break wait
					}
				}
			}

			fmt.Fprintf(c.Root().Writer, "completed %d polls, %d qualifying transfers\n", ww.PollCount(), len(ww.Logs()))
			for _, record := range ww.Logs() {
				fmt.Fprintln(c.Root().Writer, record)
			}

			return nil
		},
	}
}
