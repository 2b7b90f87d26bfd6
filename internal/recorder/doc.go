// Package recorder maintains declarative snapshots of the live content model.
//
// The recorder subscribes to model mutation events, accumulating them into a
// single dirty flag, and serializes the full model to the configured snapshot
// files on flush. Output is deterministic: entities and keys sort so that
// identical model states produce byte-identical snapshots.
package recorder
