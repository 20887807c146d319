package notify

import (
	"context"
	"log"
	"sort"
	"sync"
)

// Handler processes events dispatched by a Bus. Handlers are called in
// priority order (lower value first) for the severities they handle.
type Handler interface {
	// ID returns a unique identifier for this handler.
	ID() string

	// Handles returns the severities this handler processes. Empty means all.
	Handles() []Severity

	// Priority determines call order. Lower values are called first.
	Priority() int

	// Handle processes one event. Errors are logged and never stop the chain.
	Handle(ctx context.Context, e Event) error
}

// Bus is a Sink that fans events out to registered handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus creates a bus with the given handlers.
func NewBus(handlers ...Handler) *Bus {
	b := &Bus{}
	for _, h := range handlers {
		b.Register(h)
	}
	return b
}

// Register adds a handler. Registering an ID twice replaces the first handler.
func (b *Bus) Register(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.handlers {
		if existing.ID() == h.ID() {
			b.handlers[i] = h
			return
		}
	}
	b.handlers = append(b.handlers, h)
	sort.SliceStable(b.handlers, func(i, j int) bool {
		return b.handlers[i].Priority() < b.handlers[j].Priority()
	})
}

// Handlers returns the registered handlers in call order.
func (b *Bus) Handlers() []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Handler, len(b.handlers))
	copy(out, b.handlers)
	return out
}

// Notify dispatches e to every matching handler.
func (b *Bus) Notify(ctx context.Context, e Event) {
	for _, h := range b.Handlers() {
		if !handles(h, e.Severity) {
			continue
		}
		if err := h.Handle(ctx, e); err != nil {
			log.Printf("notify: handler %q error for %s event: %v", h.ID(), e.Op, err)
		}
	}
}

func handles(h Handler, s Severity) bool {
	severities := h.Handles()
	if len(severities) == 0 {
		return true
	}
	for _, v := range severities {
		if v == s {
			return true
		}
	}
	return false
}
