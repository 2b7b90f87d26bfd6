package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"modelsync/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/modelsync"
	configFileName = "config.yaml"
)

// GetDefaultConfigPathOrPanic returns the user's modelsync configuration
// directory.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from a single specified directory. The
// directory should contain config.yaml; a missing file yields the defaults.
// Relative StatePath and snapshot paths resolve against the directory.
func LoadConfig(configPath string) (ModelSyncConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			config.resolvePaths(configPath)
			return config, nil
		}
		logging.Info("ConfigLoader", "Error loading config.yaml from %s: %s", configFilePath, err)
		return ModelSyncConfig{}, err
	}
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		// config malformed
		return ModelSyncConfig{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}
	if len(config.Locales) == 0 {
		config.Locales = []string{DefaultLocale}
	}
	config.resolvePaths(configPath)

	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}

// resolvePaths anchors relative paths to the configuration directory.
func (c *ModelSyncConfig) resolvePaths(configPath string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(configPath, p)
	}

	c.StatePath = resolve(c.StatePath)
	for i := range c.Watch {
		c.Watch[i].Path = resolve(c.Watch[i].Path)
	}
	for i := range c.Snapshots {
		c.Snapshots[i].Path = resolve(c.Snapshots[i].Path)
	}
}
