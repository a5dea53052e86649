// Package realtime owns the persistent connection to the chat server:
// the websocket lifecycle with bounded reconnection, and the in-process
// bus that fans decoded events out to subscribers.
package realtime

import (
	"fmt"
	"log/slog"
	"sync"

	"shelftalk/domain/event"
)

// Listener receives every event dispatched on the bus.
type Listener func(event.ServerEvent)

type registration struct {
	id       uint64
	listener Listener
}

// EventBus fans every inbound event out to all registered listeners,
// synchronously and in registration order. It provides best-effort
// delivery with no buffering: an event dispatched with no listeners is
// discarded. EventBus is safe for concurrent use.
type EventBus struct {
	log *slog.Logger

	mu     sync.Mutex
	nextID uint64
	regs   []registration
}

func NewEventBus(log *slog.Logger) *EventBus {
	return &EventBus{log: log}
}

// Subscription removes exactly one registration and nothing else, even
// when the same listener function was registered several times.
type Subscription struct {
	bus  *EventBus
	id   uint64
	once sync.Once
}

// Cancel removes the registration. Calling it twice is a no-op.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.bus.remove(s.id)
	})
}

// Subscribe registers a listener and returns the handle that removes it.
func (b *EventBus) Subscribe(listener Listener) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.regs = append(b.regs, registration{id: b.nextID, listener: listener})
	return &Subscription{bus: b, id: b.nextID}
}

// Dispatch delivers the event to every listener registered at call time.
// A panicking listener is isolated so the remaining listeners still see
// the event.
func (b *EventBus) Dispatch(evt event.ServerEvent) {
	b.mu.Lock()
	regs := make([]registration, len(b.regs))
	copy(regs, b.regs)
	b.mu.Unlock()

	for _, reg := range regs {
		b.deliver(reg, evt)
	}
}

func (b *EventBus) deliver(reg registration, evt event.ServerEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error(fmt.Sprintf("Event listener %d panicked: %v", reg.id, r))
		}
	}()
	reg.listener(evt)
}

// Clear drops every registration. Outstanding Subscription handles
// become inert.
func (b *EventBus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regs = nil
}

func (b *EventBus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, reg := range b.regs {
		if reg.id == id {
			b.regs = append(b.regs[:i], b.regs[i+1:]...)
			return
		}
	}
}
