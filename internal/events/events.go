package events

import (
	"sync"
	"time"
)

// Reservation lifecycle event types.
const (
	TypeReservationSubmitted  = "reservation.submitted"
	TypeReservationApproved   = "reservation.approved"
	TypeReservationRejected   = "reservation.rejected"
	TypeCancellationRequested = "reservation.cancel_requested"
	TypeReservationCancelled  = "reservation.cancelled"
	TypeReservationsClosed    = "reservation.closed"
	TypeReservationDeleted    = "reservation.deleted"
)

// Event represents a lightweight domain event.
type Event struct {
	Type          string
	ReservationID int64
	RoomID        int64
	CreatedAt     time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event Event)

// EventBus provides in-process pub/sub for reservation lifecycle events.
type EventBus struct {
	subscribers map[string][]EventHandler
	all         []EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler invoked for every event type.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.all...)
	handlers = append(handlers, b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		handler(event)
	}
}
