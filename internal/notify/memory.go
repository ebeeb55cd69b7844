package notify

import (
	"context"
	"sync"
)

// Published is one captured notification.
type Published struct {
	SessionID string
	Event     string
	Payload   any
}

// MemoryNotifier captures notifications for tests.
type MemoryNotifier struct {
	mu     sync.Mutex
	events []Published
}

// NewMemoryNotifier creates an empty capture notifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (n *MemoryNotifier) Publish(_ context.Context, sessionID, event string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, Published{SessionID: sessionID, Event: event, Payload: payload})
	return nil
}

// Events returns a copy of everything published so far.
func (n *MemoryNotifier) Events() []Published {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Published(nil), n.events...)
}

// Named returns only the events with the given name, in publish order.
func (n *MemoryNotifier) Named(event string) []Published {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Published
	for _, e := range n.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

var _ Notifier = (*MemoryNotifier)(nil)
