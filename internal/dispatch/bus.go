package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"dota-events-service/internal/logging"
	"dota-events-service/internal/metrics"
)

// Event is one named occurrence for a session.
type Event struct {
	Session string
	Name    string
	Value   any
}

// Handler reacts to a dispatched event. Handlers must be idempotent or
// self-guarding: dispatch may re-enter for the same session while an earlier
// handler is still waiting on I/O.
type Handler func(ctx context.Context, ev Event) error

// Bus is a registry of event-name -> handlers. Delivery is synchronous and
// in registration order; one handler failing (error or panic) never stops
// delivery to the rest.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
	metrics  *metrics.Recorder
}

// NewBus constructs an empty Bus.
func NewBus(logger *slog.Logger, recorder *metrics.Recorder) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
		metrics:  recorder,
	}
}

// Register appends a handler for the named event.
func (b *Bus) Register(name string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Dispatch delivers the event to every registered handler in order.
func (b *Bus) Dispatch(ctx context.Context, ev Event) {
	b.mu.RLock()
	handlers := b.handlers[ev.Name]
	b.mu.RUnlock()

	for i, h := range handlers {
		b.run(ctx, ev, i, h)
	}
	b.metrics.RecordEventDispatched(ev.Name, len(handlers))
}

func (b *Bus) run(ctx context.Context, ev Event, idx int, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error(logging.FromContext(ctx, b.logger), "event handler panicked",
				fmt.Errorf("%v", r),
				slog.String(logging.FieldEvent, ev.Name),
				slog.String(logging.FieldSession, ev.Session),
				slog.Int("handler", idx),
			)
		}
	}()

	if err := h(ctx, ev); err != nil {
		logging.Error(logging.FromContext(ctx, b.logger), "event handler failed", err,
			slog.String(logging.FieldEvent, ev.Name),
			slog.String(logging.FieldSession, ev.Session),
			slog.Int("handler", idx),
		)
	}
}
