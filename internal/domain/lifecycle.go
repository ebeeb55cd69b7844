package domain

// LifecycleState is the per-session market state machine position.
type LifecycleState int

const (
	// Idle: no live match being tracked.
	Idle LifecycleState = iota
	// PendingMatch: a live match with a known hero was observed; market
	// creation has been requested but not yet confirmed.
	PendingMatch
	// MatchOpen: the wagering market exists for the tracked match.
	MatchOpen
	// Closing: a win condition or disconnect was observed; settlement is in
	// flight.
	Closing
)

func (s LifecycleState) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingMatch:
		return "pending_match"
	case MatchOpen:
		return "match_open"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}
