package model

import (
	"context"

	"modelsync/pkg/logging"
)

// Actor identifies who is driving a sync session.
type Actor struct {
	// Name is the actor's login or service-account name.
	Name string

	// Superuser grants access to registration and sync operations.
	Superuser bool
}

// Session carries the acting user, output mode and store handle explicitly
// through registration, runs and applies. There is no ambient global state:
// every operation that needs privileges or the store receives a Session.
type Session struct {
	Actor Actor
	Mode  logging.OutputMode
	Store Store
}

// NewAdminSession returns a session elevated to an administrative actor,
// used by headless invocations.
func NewAdminSession(store Store, mode logging.OutputMode) *Session {
	return &Session{
		Actor: Actor{Name: "admin", Superuser: true},
		Mode:  mode,
		Store: store,
	}
}

// Allowed reports whether the session's actor may register watch targets and
// trigger runs. Callers perform this check once before registering; the
// registry itself does not gate.
func (s *Session) Allowed() bool {
	return s.Actor.Superuser
}

// Component is an externally managed unit (a module or plugin of the host
// application) that can be watched through its backing source file.
type Component interface {
	// Name returns the component's unique name.
	Name() string

	// SourcePath returns the path of the component's backing source file,
	// used for change detection.
	SourcePath() string
}

// ReconcilingComponent is implemented by components that expose their own
// reconcile capability. The runner invokes Reconcile directly instead of
// decoding a document; components without the capability are skipped.
type ReconcilingComponent interface {
	Component

	// Reconcile applies the component's own configuration to the store.
	Reconcile(ctx context.Context, session *Session) error
}
