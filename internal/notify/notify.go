package notify

import "context"

// Notifier pushes overlay-facing events (timers, market updates, manual
// action notices) out to whatever renders them. Delivery is best effort;
// callers never block match handling on a notifier failure.
type Notifier interface {
	Publish(ctx context.Context, sessionID, event string, payload any) error
}

// Overlay event names.
const (
	EventRoshanTimer  = "roshan"
	EventAegisTimer   = "aegis"
	EventAegisDenied  = "aegis_denied"
	EventKillStreak   = "killstreak"
	EventMarketOpened = "market_opened"
	EventMarketClosed = "market_closed"
	EventManualAction = "manual_action_needed"
	EventVisibility   = "visibility"
	EventRanks        = "ranks"
)
