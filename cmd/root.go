package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
)

// Persistent flags shared by all subcommands.
var (
	configPath   string
	outputMode   string
	markAfterRun bool
)

// rootCmd represents the base command for the modelsync application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "modelsync",
	Short: "Keep a content model in sync with declarative definitions",
	Long: `modelsync watches declarative content-model definitions (fields,
templates, roles and records in YAML, JSON or template scripts) and
reconciles the live model against them: missing entities are created,
existing ones are configured in place, and applying the same definitions
twice changes nothing.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "modelsync version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", "",
		"config directory (default is $HOME/.config/modelsync)")
	rootCmd.PersistentFlags().StringVar(&outputMode, "output", "",
		"output mode: quiet, verbose or debug")
	rootCmd.PersistentFlags().BoolVar(&markAfterRun, "mark-after-run", false,
		"record the last-run timestamp after a run completes instead of before")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newRecordCmd())
	rootCmd.AddCommand(newStatusCmd())
}
