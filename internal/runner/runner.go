package runner

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"modelsync/internal/decode"
	"modelsync/internal/model"
	"modelsync/internal/reconciler"
	"modelsync/internal/registry"
	"modelsync/pkg/logging"
)

// Option configures a Runner.
type Option func(*Runner)

// WithMarkAfterRun records the last-run timestamp after a run completes
// instead of before it starts. The default marks before the run so that a
// run whose own side effects touch watched files (for example a snapshot
// written into a watched directory) cannot schedule itself forever.
func WithMarkAfterRun() Option {
	return func(r *Runner) { r.markAfter = true }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// Runner evaluates the change clock against the last completed run and, when
// due, executes every reconcile-capable registry entry in priority order.
type Runner struct {
	registry   *registry.Registry
	lastRun    registry.LastRunStore
	reconciler *reconciler.Reconciler
	markAfter  bool
	now        func() time.Time

	// group collapses concurrent due-evaluations into a single run.
	group singleflight.Group
}

// New creates a runner over the given registry and last-run store.
func New(reg *registry.Registry, lastRun registry.LastRunStore, opts ...Option) *Runner {
	r := &Runner{
		registry:   reg,
		lastRun:    lastRun,
		reconciler: reconciler.New(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EvaluateAndRunIfDue is the entry point for event-driven triggers. Concurrent
// calls share a single underlying run.
func (r *Runner) EvaluateAndRunIfDue(ctx context.Context, session *model.Session) error {
	_, err, _ := r.group.Do("run", func() (any, error) {
		return nil, r.Run(ctx, session, false)
	})
	return err
}

// Run executes a reconciliation pass if one is due. A run is due when forced,
// when the session is in debug mode, or when some watched file changed after
// the last completed run. A not-due evaluation returns nil with no side
// effects.
func (r *Runner) Run(ctx context.Context, session *model.Session, force bool) error {
	debug := session.Mode == logging.ModeDebug

	latest := r.registry.LatestChange()
	if !registry.IsDue(r.lastRun.Get(), latest, force, debug) {
		logging.Debug("Runner", "Nothing changed since last run, skipping")
		return nil
	}

	if !r.markAfter {
		if err := r.lastRun.Set(r.now()); err != nil {
			logging.Warn("Runner", "Cannot persist last-run timestamp: %v", err)
		}
	}

	entries := r.registry.Entries()
	logging.Info("Runner", "Reconciling %d registered targets", len(entries))

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.Reconcile {
			logging.Debug("Runner", "Skipping watch-only entry %s", e.Key)
			continue
		}

		if err := r.runEntry(ctx, session, e); err != nil {
			if debug {
				return fmt.Errorf("reconciling %s: %w", e.Key, err)
			}
			if session.Mode != logging.ModeQuiet {
				logging.Warn("Runner", "Entry %s failed: %v", e.Key, err)
			}
		}
	}

	if r.markAfter {
		if err := r.lastRun.Set(r.now()); err != nil {
			logging.Warn("Runner", "Cannot persist last-run timestamp: %v", err)
		}
	}

	return nil
}

// runEntry dispatches one entry by kind.
func (r *Runner) runEntry(ctx context.Context, session *model.Session, e *registry.Entry) error {
	switch e.Kind {
	case registry.EntryCallback:
		logging.Debug("Runner", "Invoking callback %s", e.Key)
		return e.Callback(ctx, session)

	case registry.EntryComponent:
		rc, ok := e.Component.(model.ReconcilingComponent)
		if !ok {
			logging.Debug("Runner", "Component %s has no reconcile capability, skipping",
				e.Component.Name())
			return nil
		}
		logging.Debug("Runner", "Reconciling component %s", e.Component.Name())
		return rc.Reconcile(ctx, session)

	case registry.EntryFile:
		return r.runFile(ctx, session, e)

	default:
		return fmt.Errorf("unknown entry kind %q", e.Kind)
	}
}

// runFile decodes a declarative file and applies the resulting document. Text
// results get one re-decode attempt; anything else that is not a document is
// logged and skipped.
func (r *Runner) runFile(ctx context.Context, session *model.Session, e *registry.Entry) error {
	result, err := decode.File(e.Path)
	if err != nil {
		return err
	}

	if result.Kind == decode.DecodedText {
		reparsed, err := decode.Parse([]byte(result.Text))
		if err != nil {
			return fmt.Errorf("text output of %s: %w", e.Path, err)
		}
		result = reparsed
	}

	switch result.Kind {
	case decode.DecodedDocument:
		if result.Doc.Empty() {
			logging.Debug("Runner", "Empty document from %s", e.Path)
			return nil
		}
		_, err := r.reconciler.Apply(ctx, session, result.Doc)
		return err

	default:
		logging.Debug("Runner", "No config produced by %s", e.Path)
		return nil
	}
}
