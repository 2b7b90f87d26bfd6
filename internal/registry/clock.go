package registry

import (
	"os"
	"strings"
	"time"

	"modelsync/pkg/logging"
)

// LatestChange computes the maximum filesystem modification time across the
// distinct underlying files referenced by the registry. Multiple callback
// entries declared in one file count that file once. Returns the zero time
// for an empty registry or when no underlying file can be stat'ed.
//
// Resolution is whatever the filesystem offers (typically seconds): two edits
// within one clock tick are indistinguishable from one. This is an accepted
// limitation, not a defect.
func (r *Registry) LatestChange() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.entries))
	var latest time.Time

	for _, e := range r.entries {
		path := e.Path
		// Defensive: Path already has the disambiguator stripped, but a
		// key-derived path may still carry one.
		if i := strings.IndexByte(path, '#'); i >= 0 {
			path = path[:i]
		}
		if seen[path] {
			continue
		}
		seen[path] = true

		info, err := os.Stat(path)
		if err != nil {
			logging.Debug("ChangeClock", "Cannot stat %s: %v", path, err)
			continue
		}
		if mtime := info.ModTime(); mtime.After(latest) {
			latest = mtime
		}
	}

	return latest
}

// IsDue reports whether a run must execute: forced, always-run debug mode, or
// something watched changed since the last completed run.
func IsDue(lastRun, latestChange time.Time, force, debug bool) bool {
	if force || debug {
		return true
	}
	return lastRun.Before(latestChange)
}
