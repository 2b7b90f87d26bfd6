package cmd

import (
	"github.com/spf13/cobra"

	"modelsync/internal/app"
)

// newRecordCmd creates the command forcing a snapshot write.
func newRecordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record",
		Short: "Reconcile and write model snapshots unconditionally",
		Long: `Runs a forced reconciliation pass so the model reflects the current
definitions, then writes every configured snapshot file even if the
recorder considers them up to date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.NewApplication(&app.Config{
				ConfigPath:   configPath,
				Output:       outputMode,
				MarkAfterRun: markAfterRun,
			})
			if err != nil {
				return err
			}

			if err := a.RunOnce(cmd.Context(), true); err != nil {
				return err
			}

			a.Recorder().MarkDirty()
			return a.Recorder().Flush()
		},
	}
}
