package fixture

import (
	"context"
	"strconv"

	"dota-events-service/internal/domain"
)

// Upstream serves a deterministic live match useful for local runs and
// tests. Every account appears to be on the same server, the roster is
// complete immediately, and radiant always wins.
type Upstream struct{}

// New creates the fixture upstream.
func New() *Upstream {
	return &Upstream{}
}

// ServerForAccount always finds a server.
func (u *Upstream) ServerForAccount(ctx context.Context, accountID int64) (string, error) {
	_ = ctx
	return "fixture-server-" + strconv.FormatInt(accountID, 10), nil
}

// RealtimeStats returns a complete ten-player roster.
func (u *Upstream) RealtimeStats(ctx context.Context, serverID string) (*domain.MatchRecord, error) {
	_ = ctx
	record := &domain.MatchRecord{
		MatchID:      "7000000042",
		ServerHandle: serverID,
		LobbyType:    7,
		Teams:        []domain.RosterTeam{{}, {}},
	}
	for side := range record.Teams {
		for slot := 0; slot < 5; slot++ {
			record.Teams[side].Players = append(record.Teams[side].Players, domain.RosterPlayer{
				AccountID: int64(100 + side*5 + slot),
				HeroID:    1 + side*5 + slot,
			})
		}
	}
	return record, nil
}

// MatchResult always scores the match for radiant.
func (u *Upstream) MatchResult(ctx context.Context, matchID string) (*domain.MatchResult, error) {
	_ = ctx
	return &domain.MatchResult{MatchID: matchID, Winner: domain.TeamRadiant}, nil
}

// RankCard returns a fixed mid-ladder card.
func (u *Upstream) RankCard(ctx context.Context, accountID int64) (*domain.RankCard, error) {
	_ = ctx
	return &domain.RankCard{AccountID: accountID, RankTier: 54}, nil
}
