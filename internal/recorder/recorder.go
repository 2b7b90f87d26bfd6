package recorder

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"

	"modelsync/internal/events"
	"modelsync/internal/model"
	"modelsync/internal/registry"
	"modelsync/pkg/logging"
)

// Format selects a snapshot file serialization.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Spec describes one snapshot output file.
type Spec struct {
	// Path is the snapshot file to write.
	Path string

	// Format selects the serialization; empty means YAML.
	Format Format

	// IncludeSystem includes store-managed auxiliary entities (fieldset
	// closers, repeater backing templates) in the snapshot.
	IncludeSystem bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// Recorder observes model mutations and writes declarative snapshots of the
// current model on flush.
//
// Mutations only mark the recorder dirty; the snapshot itself is produced
// lazily by Flush so that a burst of changes costs one write. After a
// successful flush the last-run timestamp is refreshed, so snapshot files
// landing in a watched directory do not schedule a follow-up run.
type Recorder struct {
	mu      sync.Mutex
	store   model.Store
	lastRun registry.LastRunStore
	specs   []Spec
	dirty   bool
	now     func() time.Time
}

// New creates a recorder over the given store. lastRun may be nil when no
// run scheduling is in play (standalone snapshot commands).
func New(store model.Store, lastRun registry.LastRunStore, specs []Spec, opts ...Option) *Recorder {
	r := &Recorder{
		store:   store,
		lastRun: lastRun,
		specs:   specs,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Configure replaces the output specs. A configuration change marks the
// recorder dirty: existing snapshot files may no longer reflect the specs.
func (r *Recorder) Configure(specs []Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs = specs
	r.dirty = true
}

// HandleEvent implements events.Listener. Every model mutation marks the
// recorder dirty.
func (r *Recorder) HandleEvent(ev events.Event) {
	logging.Debug("Recorder", "Marked dirty by %s (%s %s)", ev.Reason, ev.Kind, ev.Name)
	r.MarkDirty()
}

// MarkDirty flags that the snapshots are stale.
func (r *Recorder) MarkDirty() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = true
}

// Dirty reports whether a flush would write.
func (r *Recorder) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

// Flush writes every configured snapshot if the recorder is dirty. A clean
// recorder flushes as a no-op. The dirty flag clears only after every spec
// wrote successfully; a failed flush retries in full next time.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.dirty {
		logging.Debug("Recorder", "Clean, nothing to flush")
		return nil
	}

	for _, spec := range r.specs {
		if err := r.write(spec); err != nil {
			return err
		}
	}
	r.dirty = false

	if r.lastRun != nil {
		if err := r.lastRun.Set(r.now()); err != nil {
			logging.Warn("Recorder", "Cannot refresh last-run timestamp: %v", err)
		}
	}

	logging.Info("Recorder", "Flushed %d snapshot(s)", len(r.specs))
	return nil
}

// snapshot is the serialized snapshot layout. Map keys serialize sorted, so
// two snapshots of the same model state are byte-identical.
type snapshot struct {
	Fields    map[string]map[string]any `yaml:"fields" json:"fields"`
	Templates map[string]map[string]any `yaml:"templates" json:"templates"`
}

func (r *Recorder) write(spec Spec) error {
	snap, err := r.build(spec.IncludeSystem)
	if err != nil {
		return err
	}

	data, err := render(snap, spec.Format)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(spec.Path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(spec.Path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", spec.Path, err)
	}

	logging.Debug("Recorder", "Wrote %s (%d bytes)", spec.Path, len(data))
	return nil
}

func (r *Recorder) build(includeSystem bool) (*snapshot, error) {
	snap := &snapshot{
		Fields:    make(map[string]map[string]any),
		Templates: make(map[string]map[string]any),
	}

	for _, f := range r.store.ListFields() {
		if f.System && !includeSystem {
			continue
		}
		exp, err := r.store.Export(model.EntityRef{Kind: model.KindField, Name: f.Name})
		if err != nil {
			return nil, fmt.Errorf("exporting field %s: %w", f.Name, err)
		}
		snap.Fields[f.Name] = exp
	}

	for _, t := range r.store.ListTemplates() {
		if t.System && !includeSystem {
			continue
		}
		exp, err := r.store.Export(model.EntityRef{Kind: model.KindTemplate, Name: t.Name})
		if err != nil {
			return nil, fmt.Errorf("exporting template %s: %w", t.Name, err)
		}
		snap.Templates[t.Name] = exp
	}

	return snap, nil
}

// render serializes the snapshot. JSON goes through the YAML bridge so both
// formats share one canonical key ordering.
func render(snap *snapshot, format Format) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	switch format {
	case FormatJSON:
		data, err := sigsyaml.YAMLToJSON(buf.Bytes())
		if err != nil {
			return nil, fmt.Errorf("failed to convert snapshot to JSON: %w", err)
		}
		return data, nil

	case FormatYAML, "":
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}
}
