package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"modelsync/internal/model"
	"modelsync/pkg/logging"
)

// EntryKind identifies what a registry entry watches.
type EntryKind string

const (
	// EntryFile watches a declarative configuration file.
	EntryFile EntryKind = "File"

	// EntryComponent watches an external component through its backing
	// source file and invokes the component's reconcile capability.
	EntryComponent EntryKind = "ComponentHook"

	// EntryCallback watches the file an inline callback was declared in
	// and invokes the callback itself.
	EntryCallback EntryKind = "Callback"
)

// DefaultPriority is assigned to entries registered without an explicit
// priority. Higher priorities run earlier.
const DefaultPriority = 1.0

// reconcileExts are the file extensions recognized as reconcile-capable
// declarative formats. Files with other extensions are watched for change
// detection only, never decoded.
var reconcileExts = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
	".tmpl": true,
}

// resolveSuffixes is the lookup order when a registered path does not exist
// literally. The first existing file wins.
var resolveSuffixes = []string{".yaml", ".yml", ".json", ".tmpl"}

// Callback is an inline reconcile callback. It receives the session so it can
// drive the store capability directly.
type Callback func(ctx context.Context, session *model.Session) error

// Target is a watchable registration target.
type Target interface {
	isTarget()
}

// FileTarget is a file or directory path. Directories expand to each
// contained eligible file, non-recursively unless Options.Recursive is set.
type FileTarget string

func (FileTarget) isTarget() {}

// ComponentTarget watches an external component's backing source file.
type ComponentTarget struct {
	Component model.Component
}

func (ComponentTarget) isTarget() {}

// CallbackTarget registers an inline callback, keyed by the file it was
// declared in plus a per-call disambiguator so multiple callbacks declared in
// one file do not collide.
type CallbackTarget struct {
	DeclaredIn string
	Func       Callback
}

func (CallbackTarget) isTarget() {}

// Options tunes a registration.
type Options struct {
	// Priority orders execution; higher runs earlier. Zero means
	// DefaultPriority.
	Priority float64

	// Recursive expands directory targets into subdirectories.
	Recursive bool

	// Origin overrides the diagnostic provenance recorded for the entry.
	// When empty, the caller's location is captured.
	Origin string
}

// Entry is one scheduled watch target. Entries are immutable after
// registration and removed only by explicit Unregister.
type Entry struct {
	// Key is the normalized absolute path, suffixed with a disambiguator
	// for callback entries. Uniqueness is enforced on this composite key.
	Key string

	// Kind identifies the entry's target type.
	Kind EntryKind

	// Path is the underlying file used for change detection (the key with
	// any disambiguator stripped).
	Path string

	// Priority orders execution, descending; ties keep insertion order.
	Priority float64

	// Reconcile marks entries that are decoded and applied on a run.
	// Watch-only entries still count for change detection.
	Reconcile bool

	// Origin is the registering caller's location, used only in logs.
	Origin string

	// Component is set for EntryComponent entries.
	Component model.Component

	// Callback is set for EntryCallback entries.
	Callback Callback
}

// Registry holds the set of watched targets and their scheduling metadata.
//
// The registry is process-lifetime state rebuilt fresh on every start; only
// the last-run timestamp persists across restarts. After every insertion the
// entries are re-sorted by priority descending with stable ties, because
// reconciliation order affects correctness when documents reference each
// other's output.
type Registry struct {
	mu          sync.RWMutex
	entries     []*Entry
	callbackSeq int
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Register adds a watch target. Registration never fails: unresolvable file
// targets are a silent no-op and duplicate keys are logged and ignored (the
// first registration wins). Privilege gating is the caller's responsibility,
// performed once before any Register call.
func (r *Registry) Register(target Target, reconcile bool, opts Options) {
	if opts.Priority == 0 {
		opts.Priority = DefaultPriority
	}
	if opts.Origin == "" {
		opts.Origin = callerOrigin()
	}

	switch t := target.(type) {
	case FileTarget:
		r.registerPath(string(t), reconcile, opts)

	case ComponentTarget:
		r.registerComponent(t.Component, reconcile, opts)

	case CallbackTarget:
		r.registerCallback(t, reconcile, opts)

	default:
		logging.Warn("Registry", "Unknown target type %T from %s", target, opts.Origin)
	}
}

// registerPath handles file and directory targets.
func (r *Registry) registerPath(path string, reconcile bool, opts Options) {
	abs, err := filepath.Abs(path)
	if err != nil {
		logging.Warn("Registry", "Cannot normalize path %s: %v", path, err)
		return
	}

	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		r.registerDir(abs, reconcile, opts)
		return
	}

	resolved, ok := resolveFile(abs)
	if !ok {
		// No matching file exists: registration is a silent no-op.
		logging.Debug("Registry", "No file for %s, skipping registration", abs)
		return
	}

	if reconcile && !reconcileExts[strings.ToLower(filepath.Ext(resolved))] {
		logging.Warn("Registry", "%v; watching only", &UnsupportedFormatError{
			Path: resolved,
			Ext:  filepath.Ext(resolved),
		})
		reconcile = false
	}

	r.insert(&Entry{
		Key:       resolved,
		Kind:      EntryFile,
		Path:      resolved,
		Priority:  opts.Priority,
		Reconcile: reconcile,
		Origin:    opts.Origin,
	})
}

// registerDir expands a directory into its eligible files, each registered
// individually with the same priority and flags.
func (r *Registry) registerDir(dir string, reconcile bool, opts Options) {
	if opts.Recursive {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			if reconcileExts[strings.ToLower(filepath.Ext(path))] {
				r.registerPath(path, reconcile, opts)
			}
			return nil
		})
		if err != nil {
			logging.Warn("Registry", "Error walking %s: %v", dir, err)
		}
		return
	}

	dirents, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn("Registry", "Cannot read directory %s: %v", dir, err)
		return
	}
	for _, de := range dirents {
		if de.IsDir() {
			continue
		}
		if reconcileExts[strings.ToLower(filepath.Ext(de.Name()))] {
			r.registerPath(filepath.Join(dir, de.Name()), reconcile, opts)
		}
	}
}

// registerComponent watches a component's backing source file and carries the
// component reference so the runner can invoke its reconcile capability.
func (r *Registry) registerComponent(comp model.Component, reconcile bool, opts Options) {
	if comp == nil {
		logging.Warn("Registry", "Nil component from %s", opts.Origin)
		return
	}

	abs, err := filepath.Abs(comp.SourcePath())
	if err != nil {
		logging.Warn("Registry", "Cannot normalize component source %s: %v", comp.SourcePath(), err)
		return
	}

	r.insert(&Entry{
		Key:       abs,
		Kind:      EntryComponent,
		Path:      abs,
		Priority:  opts.Priority,
		Reconcile: reconcile,
		Origin:    opts.Origin,
		Component: comp,
	})
}

// registerCallback keys the entry by declaring file plus a fresh
// disambiguator.
func (r *Registry) registerCallback(t CallbackTarget, reconcile bool, opts Options) {
	if t.Func == nil {
		logging.Warn("Registry", "Nil callback from %s", opts.Origin)
		return
	}

	abs, err := filepath.Abs(t.DeclaredIn)
	if err != nil {
		logging.Warn("Registry", "Cannot normalize callback source %s: %v", t.DeclaredIn, err)
		return
	}

	r.mu.Lock()
	r.callbackSeq++
	seq := r.callbackSeq
	r.mu.Unlock()

	r.insert(&Entry{
		Key:       fmt.Sprintf("%s#%d", abs, seq),
		Kind:      EntryCallback,
		Path:      abs,
		Priority:  opts.Priority,
		Reconcile: reconcile,
		Origin:    opts.Origin,
		Callback:  t.Func,
	})
}

// insert adds the entry unless its key is taken, then restores priority order.
func (r *Registry) insert(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.entries {
		if existing.Key == e.Key {
			logging.Warn("Registry", "%v", &ConflictError{Key: e.Key, Origin: e.Origin})
			return
		}
	}

	r.entries = append(r.entries, e)
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].Priority > r.entries[j].Priority
	})

	logging.Debug("Registry", "Registered %s %s (priority %.2f, reconcile %t)",
		e.Kind, e.Key, e.Priority, e.Reconcile)
}

// Unregister removes every entry whose underlying file matches the target.
// For callback targets this removes all callbacks declared in the file.
func (r *Registry) Unregister(target Target) {
	var path string
	switch t := target.(type) {
	case FileTarget:
		path = string(t)
	case ComponentTarget:
		if t.Component == nil {
			return
		}
		path = t.Component.SourcePath()
	case CallbackTarget:
		path = t.DeclaredIn
	default:
		return
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	if resolved, ok := resolveFile(abs); ok {
		abs = resolved
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.Path == abs {
			logging.Debug("Registry", "Unregistered %s", e.Key)
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
}

// Entries returns the registered entries in execution order (priority
// descending, stable ties).
func (r *Registry) Entries() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// resolveFile tries the literal path, then the recognized declarative
// suffixes appended to it. The first existing regular file wins.
func resolveFile(abs string) (string, bool) {
	if info, err := os.Stat(abs); err == nil && info.Mode().IsRegular() {
		return abs, true
	}
	for _, suffix := range resolveSuffixes {
		candidate := abs + suffix
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}

// callerOrigin captures the registering caller's file:line for diagnostics.
func callerOrigin() string {
	// Skip callerOrigin and Register itself.
	if _, file, line, ok := runtime.Caller(2); ok {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return "unknown"
}
