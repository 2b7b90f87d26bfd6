package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"modelsync/internal/app"
	"modelsync/pkg/logging"
)

// newWatchCmd creates the long-running watch command.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch declarative definitions and reconcile on change",
		Long: `Runs until interrupted. After an initial catch-up run, every change
to a watched file triggers a debounced reconciliation run followed by a
snapshot flush.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.NewApplication(&app.Config{
				ConfigPath:   configPath,
				Output:       outputMode,
				MarkAfterRun: markAfterRun,
			})
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return a.Watch(ctx)
			})

			// Tell systemd we are up; a no-op outside a systemd unit.
			if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
				logging.Warn("Watch", "sd_notify failed: %v", err)
			} else if sent {
				logging.Debug("Watch", "Notified systemd readiness")
			}

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
