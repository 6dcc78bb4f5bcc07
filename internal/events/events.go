// Package events provides a small in-process event bus used for cross-module
// notifications. Delivery is asynchronous and best-effort; the persistent
// store remains the single source of truth.
package events

import (
	"sync"
	"time"

	"github.com/watchdeck/watchdeck/internal/logger"
)

// EventType identifies the class of an event.
type EventType string

const (
	// Catalog lifecycle events
	EventShowCreated EventType = "catalog.show.created"
	EventShowDeleted EventType = "catalog.show.deleted"

	// Watchlist events
	EventWatchlistCreated EventType = "watchlist.created"
	EventWatchlistDeleted EventType = "watchlist.deleted"
	EventMemberAdded      EventType = "watchlist.member.added"
	EventMemberRemoved    EventType = "watchlist.member.removed"
)

// Event is a single bus notification.
type Event struct {
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Handler receives published events.
type Handler func(Event)

// EventBus dispatches events to subscribed handlers.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	all      []Handler
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *EventBus) Subscribe(t EventType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// SubscribeAll registers a handler for every event type.
func (b *EventBus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish dispatches the event asynchronously to all matching handlers.
func (b *EventBus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	b.mu.RLock()
	targets := make([]Handler, 0, len(b.handlers[e.Type])+len(b.all))
	targets = append(targets, b.handlers[e.Type]...)
	targets = append(targets, b.all...)
	b.mu.RUnlock()

	for _, h := range targets {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("event handler panic", []logger.Field{
						logger.String("type", string(e.Type)),
					})
				}
			}()
			h(e)
		}(h)
	}
}

// NewShowEvent builds a catalog show lifecycle event.
func NewShowEvent(t EventType, showID, externalID string) Event {
	return Event{
		Type:   t,
		Source: "module:catalog",
		Data: map[string]interface{}{
			"show_id":     showID,
			"external_id": externalID,
		},
		Timestamp: time.Now(),
	}
}

// NewWatchlistEvent builds a watchlist event.
func NewWatchlistEvent(t EventType, watchlistID, userID string) Event {
	return Event{
		Type:   t,
		Source: "module:watchlist",
		Data: map[string]interface{}{
			"watchlist_id": watchlistID,
			"user_id":      userID,
		},
		Timestamp: time.Now(),
	}
}
