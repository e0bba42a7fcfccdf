package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventSessionChanged   = "session_changed"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingFailed    = "booking_failed"
)

// BookingEventPayload is the booking outcome snapshot handed to subscribers.
type BookingEventPayload struct {
	WorkflowID    string `json:"workflow_id"`
	ProfileID     string `json:"profile_id"`
	UserID        string `json:"user_id"`
	ServiceID     string `json:"service_id"`
	StartTimeISO  string `json:"start_time_iso"`
	AppointmentID string `json:"appointment_id,omitempty"`
	OrderID       string `json:"order_id,omitempty"`
	AmountCents   int64  `json:"amount_cents,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

type subscription struct {
	id      uint64
	handler EventHandler
}

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]subscription
	nextID      uint64
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]subscription)}
}

// Subscribe registers a handler for a given event type and returns a func that removes it.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subscribers[eventType] = append(b.subscribers[eventType], subscription{id: id, handler: handler})

	return func() { b.unsubscribe(eventType, id) }
}

func (b *EventBus) unsubscribe(eventType string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[eventType]
	for i, s := range subs {
		if s.id == id {
			b.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, s := range subs {
		// Handlers run synchronously; caller decides concurrency model.
		_ = s.handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

// Decode unmarshals the event payload into out.
func (e *Event) Decode(out interface{}) error {
	return json.Unmarshal(e.Payload, out)
}
