package events

import (
	"fmt"
	"strings"
	"sync"

	console "tourdesk/internal/utils/logger"
)

var log = console.New("EVENTS")

type EventHandler func(event string, data interface{})

type subscription struct {
	id      uint64
	pattern string
	handler EventHandler
}

type EventBus struct {
	subs   []subscription
	nextID uint64
	mu     sync.RWMutex
	wg     sync.WaitGroup
}

var defaultBus = NewEventBus()

func NewEventBus() *EventBus {
	return &EventBus{}
}

// On registers a handler for an event. The pattern is either an exact event
// name, "*" for every event, or "<prefix>.*" / "*.<suffix>". The returned func
// removes the handler.
func (bus *EventBus) On(pattern string, handler EventHandler) func() {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.nextID++
	id := bus.nextID
	bus.subs = append(bus.subs, subscription{id: id, pattern: pattern, handler: handler})
	log.Debug("Registered handler for event: %s", pattern)

	return func() {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		for i, s := range bus.subs {
			if s.id == id {
				bus.subs = append(bus.subs[:i], bus.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit triggers an event with the given data. Handlers run on their own
// goroutines; a panicking handler is logged and does not affect the emitter.
func (bus *EventBus) Emit(event string, data interface{}) {
	bus.mu.RLock()
	var handlers []EventHandler
	for _, s := range bus.subs {
		if Match(s.pattern, event) {
			handlers = append(handlers, s.handler)
		}
	}
	bus.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	log.Debug("Emitting event: %s", event)

	for _, handler := range handlers {
		bus.wg.Add(1)
		go func(h EventHandler) {
			defer bus.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					_ = log.Error("Panic in event handler", fmt.Errorf("panic: %v", r))
				}
			}()
			h(event, data)
		}(handler)
	}
}

// Wait blocks until every handler started so far has returned
func (bus *EventBus) Wait() {
	bus.wg.Wait()
}

// Match reports whether event satisfies pattern
func Match(pattern, event string) bool {
	switch {
	case pattern == "*":
		return true
	case strings.HasSuffix(pattern, ".*"):
		return strings.HasPrefix(event, strings.TrimSuffix(pattern, "*"))
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(event, strings.TrimPrefix(pattern, "*"))
	default:
		return pattern == event
	}
}

// On Global event functions that use the default event bus
func On(pattern string, handler EventHandler) func() {
	return defaultBus.On(pattern, handler)
}

func Emit(event string, data interface{}) {
	defaultBus.Emit(event, data)
}

func Default() *EventBus {
	return defaultBus
}
