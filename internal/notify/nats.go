package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Envelope is the wire shape published to the overlay subjects.
type Envelope struct {
	SessionID string `json:"session_id"`
	Event     string `json:"event"`
	Payload   any    `json:"payload,omitempty"`
}

// NATSNotifier publishes overlay events to per-session NATS subjects of the
// form <prefix>.<session>.<event>.
type NATSNotifier struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSNotifier wraps an existing connection.
func NewNATSNotifier(conn *nats.Conn, prefix string) *NATSNotifier {
	if prefix == "" {
		prefix = "overlay"
	}
	return &NATSNotifier{conn: conn, prefix: prefix}
}

// Dial connects to the given NATS URL with the default options.
func Dial(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name("dota-events-service"))
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return conn, nil
}

func (n *NATSNotifier) Publish(_ context.Context, sessionID, event string, payload any) error {
	data, err := json.Marshal(Envelope{SessionID: sessionID, Event: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("notify: encode %s: %w", event, err)
	}
	subject := n.prefix + "." + sessionID + "." + event
	if err := n.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("notify: publish %s: %w", subject, err)
	}
	return nil
}

var _ Notifier = (*NATSNotifier)(nil)
