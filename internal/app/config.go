package app

// Config carries the command-line level settings into the bootstrap.
type Config struct {
	// ConfigPath is the configuration directory. Empty means the user
	// default (~/.config/modelsync).
	ConfigPath string

	// Output overrides the configured output mode when non-empty.
	Output string

	// MarkAfterRun overrides the configured last-run marking strategy.
	MarkAfterRun bool
}
