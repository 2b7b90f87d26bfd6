package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"modelsync/pkg/logging"
)

// LastRunStore persists the timestamp of the last completed run across
// process restarts. The value never expires; Reset forces the next
// evaluation to be due.
//
// The store is a single shared scalar with no locking: concurrent processes
// evaluating simultaneously may both observe "due" and both run. Callers
// requiring exclusivity must serialize invocations externally.
type LastRunStore interface {
	// Get returns the last completed run time, or the zero time when no
	// run has completed yet.
	Get() time.Time

	// Set records the given time as the last completed run.
	Set(t time.Time) error

	// Reset clears the stored value so the next evaluation is due.
	Reset() error
}

// FileLastRunStore persists the last-run timestamp as epoch seconds in a
// single state file.
type FileLastRunStore struct {
	path string
}

// NewFileLastRunStore creates a store backed by the given state file.
func NewFileLastRunStore(path string) *FileLastRunStore {
	return &FileLastRunStore{path: path}
}

// Get reads the persisted timestamp. Missing or malformed state reads as the
// zero time, which makes the next evaluation due.
func (s *FileLastRunStore) Get() time.Time {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("LastRunStore", "Cannot read %s: %v", s.path, err)
		}
		return time.Time{}
	}

	epoch, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		logging.Warn("LastRunStore", "Malformed state in %s: %v", s.path, err)
		return time.Time{}
	}
	if epoch <= 0 {
		return time.Time{}
	}
	return time.Unix(epoch, 0)
}

// Set writes the timestamp as epoch seconds.
func (s *FileLastRunStore) Set(t time.Time) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	epoch := int64(0)
	if !t.IsZero() {
		epoch = t.Unix()
	}
	if err := os.WriteFile(s.path, []byte(strconv.FormatInt(epoch, 10)), 0644); err != nil {
		return fmt.Errorf("failed to write state file %s: %w", s.path, err)
	}
	return nil
}

// Reset clears the stored value.
func (s *FileLastRunStore) Reset() error {
	return s.Set(time.Time{})
}
