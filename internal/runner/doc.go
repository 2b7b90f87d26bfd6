// Package runner drives scheduled reconciliation runs.
//
// A run is gated by the change clock: the maximum modification time across
// all watched files is compared against the persisted last-run timestamp, and
// nothing executes when nothing changed. By default the timestamp is recorded
// before the run starts, so side effects of the run itself (such as snapshot
// files landing in a watched directory) do not trigger a follow-up run.
package runner
