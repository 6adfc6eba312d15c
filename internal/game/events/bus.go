package events

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type funcHandler struct {
	id      string
	handler EventHandler
}

// EventBus is a synchronous event bus. Handlers run on the publishing goroutine, so
// a session publishing under its write lock delivers events in action order.
type EventBus struct {
	subscribers  map[string]Subscriber
	funcHandlers map[string][]funcHandler
	published    map[string]uint64
	nextFuncID   uint64
	mu           sync.RWMutex
	countMu      sync.Mutex
	logger       zerolog.Logger
}

// NewEventBus creates a new event bus instance
func NewEventBus() *EventBus {
	return NewEventBusWithLogger(log.Logger)
}

// NewEventBusWithLogger creates a bus that logs through logger.
func NewEventBusWithLogger(logger zerolog.Logger) *EventBus {
	return &EventBus{
		subscribers:  make(map[string]Subscriber),
		funcHandlers: make(map[string][]funcHandler),
		published:    make(map[string]uint64),
		logger:       logger.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe adds a new subscriber to the event bus
func (eb *EventBus) Subscribe(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[subscriber.ID()] = subscriber
	eb.logger.Debug().
		Str("subscriber_id", subscriber.ID()).
		Msg("Subscriber added to event bus")
}

// Unsubscribe removes a subscriber or a function handler by id.
func (eb *EventBus) Unsubscribe(subscriberID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if _, ok := eb.subscribers[subscriberID]; ok {
		delete(eb.subscribers, subscriberID)
		eb.logger.Debug().
			Str("subscriber_id", subscriberID).
			Msg("Subscriber removed from event bus")
		return
	}
	for eventType, handlers := range eb.funcHandlers {
		for i, h := range handlers {
			if h.id != subscriberID {
				continue
			}
			eb.funcHandlers[eventType] = append(handlers[:i:i], handlers[i+1:]...)
			eb.logger.Debug().
				Str("handler_id", subscriberID).
				Msg("Function handler removed from event bus")
			return
		}
	}
}

// SubscribeFunc adds a function handler for one event type and returns its id.
func (eb *EventBus) SubscribeFunc(eventType string, handler EventHandler) string {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextFuncID++
	handlerID := eventType + "_func_" + strconv.FormatUint(eb.nextFuncID, 10)
	eb.funcHandlers[eventType] = append(eb.funcHandlers[eventType], funcHandler{id: handlerID, handler: handler})
	eb.logger.Debug().
		Str("event_type", eventType).
		Str("handler_id", handlerID).
		Msg("Function handler added to event bus")

	return handlerID
}

// Publish sends an event to all interested subscribers synchronously
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	eventType := event.Type()
	eb.countMu.Lock()
	eb.published[eventType]++
	eb.countMu.Unlock()

	eb.logger.Debug().
		Str("event_type", eventType).
		Str("game_id", event.GameID()).
		Time("timestamp", event.Timestamp()).
		Msg("Publishing event")

	for id, subscriber := range eb.subscribers {
		if !subscriber.InterestedIn(eventType) {
			continue
		}
		eb.deliver(eventType, id, func() { subscriber.HandleEvent(event) })
	}
	for _, h := range eb.funcHandlers[eventType] {
		handler := h.handler
		eb.deliver(eventType, h.id, func() { handler(event) })
	}
}

// deliver runs one handler, containing a panic so the other handlers still run.
func (eb *EventBus) deliver(eventType, handlerID string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			eb.logger.Error().
				Str("handler_id", handlerID).
				Str("event_type", eventType).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()
	fn()
}

// GetSubscriberCount returns the number of subscribers for debugging
func (eb *EventBus) GetSubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

// GetFuncHandlerCount returns the number of function handlers for a specific event type
func (eb *EventBus) GetFuncHandlerCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.funcHandlers[eventType])
}

// PublishedCount returns how many events of the given type went through the bus.
func (eb *EventBus) PublishedCount(eventType string) uint64 {
	eb.countMu.Lock()
	defer eb.countMu.Unlock()
	return eb.published[eventType]
}
