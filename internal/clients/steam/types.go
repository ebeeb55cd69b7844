package steam

type serverResponse struct {
	Result struct {
		ServerSteamID string `json:"server_steam_id"`
	} `json:"result"`
}

type realtimeResponse struct {
	Match struct {
		MatchID       string `json:"match_id"`
		ServerSteamID string `json:"server_steam_id"`
		LobbyType     int    `json:"lobby_type"`
	} `json:"match"`
	Teams []realtimeTeam `json:"teams"`
}

type realtimeTeam struct {
	TeamNumber int              `json:"team_number"`
	Players    []realtimePlayer `json:"players"`
}

type realtimePlayer struct {
	AccountID int64 `json:"accountid"`
	HeroID    int   `json:"heroid"`
}

type detailsResponse struct {
	Result struct {
		MatchID    int64  `json:"match_id"`
		RadiantWin *bool  `json:"radiant_win"`
		Error      string `json:"error"`
	} `json:"result"`
}

type cardResponse struct {
	Result struct {
		AccountID       int64 `json:"account_id"`
		RankTier        int   `json:"rank_tier"`
		LeaderboardRank int   `json:"leaderboard_rank"`
	} `json:"result"`
}
