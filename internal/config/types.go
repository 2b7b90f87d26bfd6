package config

// ModelSyncConfig is the top-level configuration structure for modelsync.
type ModelSyncConfig struct {
	// StatePath is the file persisting the last completed run timestamp.
	StatePath string `yaml:"statePath,omitempty"`

	// Watch lists the files and directories registered for reconciliation
	// at startup.
	Watch []WatchConfig `yaml:"watch,omitempty"`

	// Output selects the logging and error-propagation mode: quiet,
	// verbose or debug.
	Output string `yaml:"output,omitempty"`

	// MarkAfterRun records the last-run timestamp after a run completes
	// instead of before it starts.
	MarkAfterRun bool `yaml:"markAfterRun,omitempty"`

	// Locales are the locale codes activated on created records.
	Locales []string `yaml:"locales,omitempty"`

	// Snapshots configures the recorder's output files.
	Snapshots []SnapshotConfig `yaml:"snapshots,omitempty"`
}

// WatchConfig registers one file or directory for watching.
type WatchConfig struct {
	Path string `yaml:"path"`

	// Priority orders execution; higher runs earlier (default: 1.0)
	Priority float64 `yaml:"priority,omitempty"`

	// Recursive expands directories into subdirectories (default: false)
	Recursive bool `yaml:"recursive,omitempty"`

	// WatchOnly registers the target for change detection without
	// decoding it on runs (default: false)
	WatchOnly bool `yaml:"watchOnly,omitempty"`
}

// SnapshotConfig describes one recorder output file.
type SnapshotConfig struct {
	Path string `yaml:"path"`

	// Format is yaml or json (default: yaml)
	Format string `yaml:"format,omitempty"`

	// IncludeSystem includes store-managed auxiliary entities
	// (default: false)
	IncludeSystem bool `yaml:"includeSystem,omitempty"`
}
