package events

import (
	"sync"
	"testing"
	"time"
)

func TestSubscribeReceivesMatchingEvents(t *testing.T) {
	bus := NewEventBus()

	var mu sync.Mutex
	var received []Event
	done := make(chan struct{}, 1)

	bus.Subscribe(EventTaskCompleted, func(e Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
		done <- struct{}{}
	})

	bus.PublishData(EventTaskAssigned, map[string]interface{}{"task_id": "t1"})
	bus.PublishData(EventTaskCompleted, map[string]interface{}{"task_id": "t2"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(received))
	}
	if received[0].Type != EventTaskCompleted {
		t.Errorf("unexpected event type %s", received[0].Type)
	}
	if received[0].Data["task_id"] != "t2" {
		t.Errorf("unexpected payload: %v", received[0].Data)
	}
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := NewEventBus()

	done := make(chan EventType, 4)
	bus.SubscribeAll(func(e Event) {
		done <- e.Type
	})

	bus.PublishData(EventLicenseActivated, nil)
	bus.PublishData(EventPaymentReceived, nil)

	seen := map[EventType]bool{}
	for i := 0; i < 2; i++ {
		select {
		case typ := <-done:
			seen[typ] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for events")
		}
	}

	if !seen[EventLicenseActivated] || !seen[EventPaymentReceived] {
		t.Errorf("missing events, saw: %v", seen)
	}
}
