package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"modelsync/internal/model"
)

type captureListener struct {
	got []Event
}

func (c *captureListener) HandleEvent(ev Event) {
	c.got = append(c.got, ev)
}

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	a := &captureListener{}
	b := &captureListener{}
	bus.Subscribe(a)
	bus.Subscribe(b)

	bus.Publish(Event{Reason: ReasonEntitySaved, Kind: model.KindField, Name: "title"})

	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
	assert.Equal(t, ReasonEntitySaved, a.got[0].Reason)
	assert.Equal(t, "title", a.got[0].Name)
	assert.False(t, a.got[0].Timestamp.IsZero(), "publish should fill a zero timestamp")
}

func TestBusNoListeners(t *testing.T) {
	bus := NewBus()
	assert.NotPanics(t, func() {
		bus.Publish(Event{Reason: ReasonRefreshAll})
	})
}
