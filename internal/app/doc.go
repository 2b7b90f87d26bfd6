// Package app wires configuration, store, registry, runner, recorder and
// watcher into a runnable application.
package app
