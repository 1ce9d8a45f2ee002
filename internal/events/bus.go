// Package events carries domain events from the services to their
// subscribers after the originating transaction has committed.
package events

import (
	"context"
	"sync"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
)

// Handler processes a domain event. Implementations must be safe for
// concurrent calls from different goroutines.
type Handler interface {
	HandleEvent(ctx context.Context, evt domain.Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt domain.Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt domain.Event) error {
	return f(ctx, evt)
}

// Bus is an in-process event bus. Events go to a buffered channel and are
// dispatched to every subscriber by a single consumer goroutine.
type Bus struct {
	mu          sync.RWMutex
	subscribers []namedHandler
	events      chan domain.Event
	done        chan struct{}
	started     bool
	closed      bool
}

type namedHandler struct {
	name    string
	handler Handler
}

func NewBus(bufSize int) *Bus {
	if bufSize < 1 {
		bufSize = 256
	}
	return &Bus{
		events: make(chan domain.Event, bufSize),
		done:   make(chan struct{}),
	}
}

// Subscribe registers a named handler. Must be called before Start.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, namedHandler{name: name, handler: h})
}

// Publish never blocks: when the buffer is full the event is dropped and
// a warning is logged. Events published after Stop are dropped too.
func (b *Bus) Publish(_ context.Context, evt domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		logger.Warn("Event bus stopped, dropping event", "type", evt.Type, "eventID", evt.ID)
		return
	}
	select {
	case b.events <- evt:
	default:
		logger.Warn("Event bus buffer full, dropping event", "type", evt.Type, "eventID", evt.ID)
	}
}

// Start runs the consumer until ctx is cancelled or Stop is called. Events
// still buffered at shutdown are drained first.
func (b *Bus) Start(ctx context.Context) {
	b.mu.Lock()
	b.started = true
	b.mu.Unlock()

	go func() {
		defer close(b.done)
		for {
			select {
			case evt, ok := <-b.events:
				if !ok {
					return
				}
				b.dispatch(ctx, evt)
			case <-ctx.Done():
				for {
					select {
					case evt, ok := <-b.events:
						if !ok {
							return
						}
						b.dispatch(context.WithoutCancel(ctx), evt)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop closes the bus and waits for the consumer to finish.
func (b *Bus) Stop() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
	started := b.started
	b.mu.Unlock()

	if started {
		<-b.done
	}
}

func (b *Bus) dispatch(ctx context.Context, evt domain.Event) {
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, s := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Event handler panicked", "handler", s.name, "type", evt.Type, "panic", r)
				}
			}()
			if err := s.handler.HandleEvent(ctx, evt); err != nil {
				logger.Error("Event handler failed", "handler", s.name, "type", evt.Type, "eventID", evt.ID, "error", err)
			}
		}()
	}
}
