package steam

import (
	"sort"
	"strconv"

	"dota-events-service/internal/domain"
)

func mapRealtime(payload realtimeResponse) *domain.MatchRecord {
	record := &domain.MatchRecord{
		MatchID:      payload.Match.MatchID,
		ServerHandle: payload.Match.ServerSteamID,
		LobbyType:    payload.Match.LobbyType,
	}

	teams := append([]realtimeTeam(nil), payload.Teams...)
	sort.Slice(teams, func(i, j int) bool { return teams[i].TeamNumber < teams[j].TeamNumber })

	for _, team := range teams {
		mapped := domain.RosterTeam{Players: make([]domain.RosterPlayer, 0, len(team.Players))}
		for _, p := range team.Players {
			mapped.Players = append(mapped.Players, domain.RosterPlayer{
				AccountID: p.AccountID,
				HeroID:    p.HeroID,
			})
		}
		record.Teams = append(record.Teams, mapped)
	}
	return record
}

func mapResult(matchID string, payload detailsResponse) *domain.MatchResult {
	result := &domain.MatchResult{MatchID: matchID, Winner: domain.TeamNone}
	if payload.Result.MatchID != 0 {
		result.MatchID = strconv.FormatInt(payload.Result.MatchID, 10)
	}
	if payload.Result.RadiantWin != nil {
		if *payload.Result.RadiantWin {
			result.Winner = domain.TeamRadiant
		} else {
			result.Winner = domain.TeamDire
		}
	}
	return result
}

func mapCard(payload cardResponse) *domain.RankCard {
	return &domain.RankCard{
		AccountID:       payload.Result.AccountID,
		RankTier:        payload.Result.RankTier,
		LeaderboardRank: payload.Result.LeaderboardRank,
	}
}
