package app

import (
	"context"
	"fmt"
	"os"

	"modelsync/internal/config"
	"modelsync/internal/events"
	"modelsync/internal/model"
	"modelsync/internal/recorder"
	"modelsync/internal/registry"
	"modelsync/internal/runner"
	"modelsync/internal/store"
	"modelsync/internal/watch"
	"modelsync/pkg/logging"
)

// Application bootstraps and runs modelsync.
//
// The bootstrap follows a two-phase pattern:
//  1. Bootstrap phase: load configuration, initialize logging, wire the
//     store, registry, runner and recorder together
//  2. Execution phase: run once (sync) or watch continuously (watch)
type Application struct {
	cfg     config.ModelSyncConfig
	mode    logging.OutputMode
	session *model.Session
	reg     *registry.Registry
	run     *runner.Runner
	rec     *recorder.Recorder
	lastRun registry.LastRunStore
}

// NewApplication creates and initializes an application instance. It loads
// the configuration, initializes logging for the effective output mode and
// wires all subsystems: the in-memory store publishes mutation events on a
// bus the recorder subscribes to, and every configured watch target is
// registered before the first run.
func NewApplication(cfg *Config) (*Application, error) {
	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = config.GetDefaultConfigPathOrPanic()
	}

	msCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}

	output := msCfg.Output
	if cfg.Output != "" {
		output = cfg.Output
	}
	mode := logging.ParseOutputMode(output)
	logging.Init(mode, os.Stdout)

	st := store.New(msCfg.Locales...)
	bus := events.NewBus()
	st.SetBus(bus)

	session := model.NewAdminSession(st, mode)

	reg := registry.New()
	if session.Allowed() {
		for _, w := range msCfg.Watch {
			reg.Register(registry.FileTarget(w.Path), !w.WatchOnly, registry.Options{
				Priority:  w.Priority,
				Recursive: w.Recursive,
			})
		}
	} else {
		logging.Warn("Bootstrap", "Session not privileged, skipping registrations")
	}

	lastRun := registry.NewFileLastRunStore(msCfg.StatePath)

	var runOpts []runner.Option
	if msCfg.MarkAfterRun || cfg.MarkAfterRun {
		runOpts = append(runOpts, runner.WithMarkAfterRun())
	}
	run := runner.New(reg, lastRun, runOpts...)

	specs := make([]recorder.Spec, 0, len(msCfg.Snapshots))
	for _, s := range msCfg.Snapshots {
		specs = append(specs, recorder.Spec{
			Path:          s.Path,
			Format:        recorder.Format(s.Format),
			IncludeSystem: s.IncludeSystem,
		})
	}
	rec := recorder.New(st, lastRun, specs)
	bus.Subscribe(rec)

	logging.Info("Bootstrap", "Initialized with %d watch targets, %d snapshot specs",
		reg.Len(), len(specs))

	return &Application{
		cfg:     msCfg,
		mode:    mode,
		session: session,
		reg:     reg,
		run:     run,
		rec:     rec,
		lastRun: lastRun,
	}, nil
}

// Session returns the privileged session driving the store.
func (a *Application) Session() *model.Session { return a.session }

// Registry returns the watch registry.
func (a *Application) Registry() *registry.Registry { return a.reg }

// Recorder returns the snapshot recorder.
func (a *Application) Recorder() *recorder.Recorder { return a.rec }

// Mode returns the effective output mode.
func (a *Application) Mode() logging.OutputMode { return a.mode }

// RunOnce executes a single reconciliation run and flushes pending
// snapshots. With force set the change clock is bypassed.
func (a *Application) RunOnce(ctx context.Context, force bool) error {
	if err := a.run.Run(ctx, a.session, force); err != nil {
		return err
	}
	return a.rec.Flush()
}

// Watch runs until the context is canceled, triggering a reconciliation run
// and snapshot flush whenever a watched file changes.
func (a *Application) Watch(ctx context.Context) error {
	// Catch up on anything that changed while the process was down.
	if err := a.RunOnce(ctx, false); err != nil {
		return err
	}

	watcher := watch.NewWatcher(watch.WatcherConfig{
		Registry: a.reg,
		OnChange: func() {
			if err := a.run.EvaluateAndRunIfDue(ctx, a.session); err != nil {
				logging.Error("Watch", err, "Reconciliation run failed")
				return
			}
			if err := a.rec.Flush(); err != nil {
				logging.Error("Watch", err, "Snapshot flush failed")
			}
		},
	})
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Stop()

	<-ctx.Done()
	return ctx.Err()
}
