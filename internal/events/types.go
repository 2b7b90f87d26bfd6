package events

import (
	"time"

	"modelsync/internal/model"
)

// Reason represents the trigger that caused an event.
type Reason string

const (
	// ReasonEntitySaved indicates a store entity was created or updated.
	ReasonEntitySaved Reason = "EntitySaved"

	// ReasonEntityRemoved indicates a store entity was deleted.
	ReasonEntityRemoved Reason = "EntityRemoved"

	// ReasonRefreshAll indicates a registry-wide refresh occurred.
	ReasonRefreshAll Reason = "RefreshAll"

	// ReasonRecorderConfigChanged indicates the recorder's own
	// configuration changed.
	ReasonRecorderConfigChanged Reason = "RecorderConfigChanged"
)

// Event is a single trigger event emitted by the host application or the
// store. The recorder subscribes to these to maintain its dirty flag.
type Event struct {
	// Reason describes what happened.
	Reason Reason

	// Kind is the affected entity's kind, when one applies.
	Kind model.Kind

	// Name is the affected entity's name, when one applies.
	Name string

	// Timestamp is when the event was published.
	Timestamp time.Time
}

// Listener receives published events.
type Listener interface {
	HandleEvent(Event)
}
