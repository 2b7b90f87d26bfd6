package config

const (
	// DefaultStatePath is the default last-run state file, relative to the
	// configuration directory.
	DefaultStatePath = "lastrun"

	// DefaultOutput is the default output mode.
	DefaultOutput = "verbose"

	// DefaultLocale is assumed when no locales are configured.
	DefaultLocale = "default"
)

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() ModelSyncConfig {
	return ModelSyncConfig{
		StatePath: DefaultStatePath,
		Output:    DefaultOutput,
		Locales:   []string{DefaultLocale},
	}
}
