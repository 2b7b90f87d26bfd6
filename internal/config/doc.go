// Package config loads the modelsync configuration.
//
// Configuration lives in a single directory (by default
// ~/.config/modelsync) holding a config.yaml. A missing file is not an
// error; defaults apply. Relative paths in the file resolve against the
// configuration directory so a config tree can be relocated wholesale.
package config
