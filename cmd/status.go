package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"modelsync/internal/app"
)

// newStatusCmd creates the command printing the watch registry state.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show registered targets and change-clock state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.NewApplication(&app.Config{
				ConfigPath: configPath,
				Output:     outputMode,
			})
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Kind", "Path", "Priority", "Reconcile"})
			for _, e := range a.Registry().Entries() {
				t.AppendRow(table.Row{e.Kind, e.Key, fmt.Sprintf("%.2f", e.Priority), e.Reconcile})
			}
			t.Render()

			latest := a.Registry().LatestChange()
			if latest.IsZero() {
				fmt.Fprintln(cmd.OutOrStdout(), "Latest change: none")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Latest change: %s\n", latest.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}
