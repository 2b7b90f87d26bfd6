// Package logging provides the process-wide structured logger used by all
// modelsync subsystems, built on log/slog.
//
// Every log call names its subsystem ("Registry", "Runner", "Reconciler", ...)
// so headless runs remain greppable. The OutputMode type defined here doubles
// as the error-propagation policy for the sync engine: quiet, verbose and
// debug modes decide both what gets logged and whether per-entry failures
// abort a run.
package logging
