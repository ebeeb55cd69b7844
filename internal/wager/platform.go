package wager

import (
	"context"
	"errors"
)

// ErrNoOpenMarket reports a settle or refund against a session that has no
// open market. Markets can be closed out-of-band on the platform side, so
// callers treat this as already-settled rather than a failure.
var ErrNoOpenMarket = errors.New("wager: no open market for session")

// ErrDisabled reports that the viewer turned wagering off on the platform
// side. Terminal for the session: retrying will not turn it back on.
var ErrDisabled = errors.New("wager: wagering disabled for session")

// Market describes one win/lose market tied to a viewer's match.
type Market struct {
	SessionID string
	MatchID   string
	Title     string
}

// Platform opens and settles per-viewer markets. OpenMarket returns the
// platform's id for the created market. Implementations must be idempotent
// on settle and refund: lifecycle retries after a crash may replay a close.
type Platform interface {
	OpenMarket(ctx context.Context, m Market) (string, error)
	SettleMarket(ctx context.Context, sessionID string, won bool) error
	RefundMarket(ctx context.Context, sessionID string) error
}
