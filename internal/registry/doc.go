// Package registry holds the set of watched targets and decides when a sync
// run is due.
//
// A registry entry watches a file, a directory's files, an external
// component's backing source, or an inline callback. Entries execute in
// priority order (descending, stable ties). Change detection compares the
// newest mtime across distinct underlying files with the persisted
// last-completed-run timestamp.
package registry
