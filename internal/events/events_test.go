package events

import (
	"testing"

	"rootedinspeech/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventSessionChanged, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	err := bus.PublishJSON(EventSessionChanged, models.SessionChange{ProfileID: "p1", Action: models.SessionActionCleared})
	require.NoError(t, err)

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, EventSessionChanged, received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var change models.SessionChange
	require.NoError(t, received.Decode(&change))
	assert.Equal(t, "p1", change.ProfileID)
	assert.Equal(t, models.SessionActionCleared, change.Action)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	bus.Publish(&Event{Type: "event"})

	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	var kept, removed int

	bus.Subscribe("event", func(_ *Event) error { kept++; return nil })
	unsubscribe := bus.Subscribe("event", func(_ *Event) error { removed++; return nil })

	bus.Publish(&Event{Type: "event"})
	unsubscribe()
	unsubscribe()
	bus.Publish(&Event{Type: "event"})

	assert.Equal(t, 2, kept)
	assert.Equal(t, 1, removed)
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NotPanics(t, func() {
		bus.Publish(&Event{Type: "nobody_listens"})
	})
}

func TestNilBusPublishJSON(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventBookingConfirmed, BookingEventPayload{OrderID: "o1"}))
}

func TestPublishJSONMarshalError(t *testing.T) {
	bus := NewEventBus()
	err := bus.PublishJSON("event", map[string]interface{}{"bad": make(chan int)})
	assert.Error(t, err)
}
