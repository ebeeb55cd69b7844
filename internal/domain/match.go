package domain

// RosterPlayer is one roster entry from the statistics upstream.
type RosterPlayer struct {
	AccountID int64 `json:"accountid"`
	HeroID    int   `json:"heroid"`
}

// RosterTeam is one side's five players.
type RosterTeam struct {
	Players []RosterPlayer `json:"players"`
}

// MatchRecord is the resolved view of a live match.
type MatchRecord struct {
	MatchID      string       `json:"matchId"`
	ServerHandle string       `json:"serverHandle"`
	LobbyType    int          `json:"lobbyType"`
	Teams        []RosterTeam `json:"teams"`
}

// HasAccountIDs reports whether every roster slot has an account id. Both
// readiness conditions are monotonic: once true for a match they stay true.
func (m *MatchRecord) HasAccountIDs() bool {
	return m.rosterComplete(func(p RosterPlayer) bool { return p.AccountID != 0 })
}

// HasHeroes reports whether every roster slot has a hero assigned.
func (m *MatchRecord) HasHeroes() bool {
	return m.rosterComplete(func(p RosterPlayer) bool { return p.HeroID != 0 })
}

// Complete reports full roster readiness: ten players, accounts and heroes.
func (m *MatchRecord) Complete() bool {
	return m.HasAccountIDs() && m.HasHeroes()
}

func (m *MatchRecord) rosterComplete(ok func(RosterPlayer) bool) bool {
	if m == nil || len(m.Teams) != 2 {
		return false
	}
	for _, team := range m.Teams {
		if len(team.Players) != 5 {
			return false
		}
		for _, p := range team.Players {
			if !ok(p) {
				return false
			}
		}
	}
	return true
}

// AccountIDs flattens the roster to its account ids in team order.
func (m *MatchRecord) AccountIDs() []int64 {
	if m == nil {
		return nil
	}
	ids := make([]int64, 0, 10)
	for _, team := range m.Teams {
		for _, p := range team.Players {
			ids = append(ids, p.AccountID)
		}
	}
	return ids
}

// RankCard is the per-account rank view from the rank collaborator.
type RankCard struct {
	AccountID       int64 `json:"id"`
	RankTier        int   `json:"rank_tier"`
	LeaderboardRank int   `json:"leaderboard_rank"`
}

// MatchResult is the authoritative outcome for a finished match.
type MatchResult struct {
	MatchID string
	Winner  Team // TeamNone when the match was never scored
}
