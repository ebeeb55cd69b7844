package clients

import (
	"context"
	"errors"

	"dota-events-service/internal/domain"
)

// ErrNoServer reports that the account is not on any game server yet.
// Matches take a while after the strategy phase before the server shows
// up, so callers retry on this.
var ErrNoServer = errors.New("upstream: no server for account")

// ErrNoResult reports that a finished match has no recorded outcome yet.
var ErrNoResult = errors.New("upstream: match result not available")

// ErrRejected marks an upstream response that will not improve on retry,
// such as a malformed or unauthorized request.
var ErrRejected = errors.New("upstream: request rejected")

// Upstream is the live-match side of the statistics backend: which server
// an account is on, and the roster currently on that server.
type Upstream interface {
	ServerForAccount(ctx context.Context, accountID int64) (string, error)
	RealtimeStats(ctx context.Context, serverID string) (*domain.MatchRecord, error)
}

// ResultSource reports the authoritative outcome of a finished match.
type ResultSource interface {
	MatchResult(ctx context.Context, matchID string) (*domain.MatchResult, error)
}

// RankSource fetches per-account rank cards.
type RankSource interface {
	RankCard(ctx context.Context, accountID int64) (*domain.RankCard, error)
}

// Full combines every upstream capability.
type Full interface {
	Upstream
	ResultSource
	RankSource
}
