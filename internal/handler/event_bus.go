// internal/handler/event_bus.go
package handler

import (
	"sync"

	"go.uber.org/zap"

	"printer-service/internal/model"
)

// EventBus fans device events out to subscribers. Publish never blocks; a
// full bus or a slow subscriber loses events.
type EventBus struct {
	subscribers map[model.EventType][]chan model.DeviceEvent
	all         []chan model.DeviceEvent
	events      chan model.DeviceEvent
	closed      bool
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[model.EventType][]chan model.DeviceEvent),
		events:      make(chan model.DeviceEvent, 1000),
		logger:      logger.With(zap.String("component", "event_bus")),
	}
}

// Start distributes events until Stop is called
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distributeEvent(event)
	}

	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	for _, subs := range eb.subscribers {
		for _, sub := range subs {
			close(sub)
		}
	}
	for _, sub := range eb.all {
		close(sub)
	}
	eb.subscribers = make(map[model.EventType][]chan model.DeviceEvent)
	eb.all = nil
}

// Stop closes the bus; subscriber channels are closed once drained
func (eb *EventBus) Stop() {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if !eb.closed {
		eb.closed = true
		close(eb.events)
	}
}

// Publish publishes an event
func (eb *EventBus) Publish(event model.DeviceEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	if eb.closed {
		return
	}

	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.EventType)),
			zap.String("device_id", event.DeviceID),
		)
	}
}

// Subscribe subscribes to events of a specific type
func (eb *EventBus) Subscribe(eventType model.EventType) <-chan model.DeviceEvent {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan model.DeviceEvent, 100)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
	return subscriber
}

// SubscribeAll subscribes to every event
func (eb *EventBus) SubscribeAll() <-chan model.DeviceEvent {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan model.DeviceEvent, 100)
	eb.all = append(eb.all, subscriber)
	return subscriber
}

func (eb *EventBus) distributeEvent(event model.DeviceEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	deliver := func(subscriber chan model.DeviceEvent) {
		select {
		case subscriber <- event:
		default:
			// slow subscriber
		}
	}

	for _, subscriber := range eb.subscribers[event.EventType] {
		deliver(subscriber)
	}
	for _, subscriber := range eb.all {
		deliver(subscriber)
	}
}
