package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventLicenseActivated    EventType = "LICENSE_ACTIVATED"
	EventLicenseDeactivated  EventType = "LICENSE_DEACTIVATED"
	EventLicenseExpired      EventType = "LICENSE_EXPIRED"
	EventLicenseExpiringSoon EventType = "LICENSE_EXPIRING_SOON"
	EventSeatLimitExceeded   EventType = "SEAT_LIMIT_EXCEEDED"
	EventTaskAssigned        EventType = "TASK_ASSIGNED"
	EventTaskCompleted       EventType = "TASK_COMPLETED"
	EventStaffCheckedIn      EventType = "STAFF_CHECKED_IN"
	EventStaffCheckedOut     EventType = "STAFF_CHECKED_OUT"
	EventInvoiceIssued       EventType = "INVOICE_ISSUED"
	EventPaymentReceived     EventType = "PAYMENT_RECEIVED"
	EventAuditEntry          EventType = "AUDIT_ENTRY"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	for _, subscriber := range eb.subscribers[event.Type] {
		go subscriber(event)
	}
	for _, subscriber := range eb.allSubs {
		go subscriber(event)
	}
}

// PublishData is a convenience wrapper building the event in place
func (eb *EventBus) PublishData(eventType EventType, data map[string]interface{}) {
	eb.Publish(Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	})
}
