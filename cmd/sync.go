package cmd

import (
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"modelsync/internal/app"
	"modelsync/pkg/logging"
)

// newSyncCmd creates the command running a single reconciliation pass.
func newSyncCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation pass and exit",
		Long: `Evaluates the change clock and, when something changed since the
last completed run (or --force is given), reconciles every registered
target and flushes pending snapshots.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.NewApplication(&app.Config{
				ConfigPath:   configPath,
				Output:       outputMode,
				MarkAfterRun: markAfterRun,
			})
			if err != nil {
				return err
			}

			if a.Mode() == logging.ModeQuiet {
				return a.RunOnce(cmd.Context(), force)
			}

			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			s.Suffix = " Reconciling content model..."
			s.Start()
			defer s.Stop()

			if err := a.RunOnce(cmd.Context(), force); err != nil {
				s.FinalMSG = text.FgRed.Sprint("Reconciliation failed") + "\n"
				return err
			}
			s.FinalMSG = text.FgGreen.Sprint("Content model in sync") + "\n"
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "run even when nothing changed")
	return cmd
}
