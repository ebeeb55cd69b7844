package steam

import "time"

const (
	defaultBaseURL     = "https://api.steampowered.com"
	defaultHTTPTimeout = 10 * time.Second

	serverPath   = "/IDOTA2MatchStats_570/GetServerSteamID/v1"
	realtimePath = "/IDOTA2MatchStats_570/GetRealtimeStats/v1"
	detailsPath  = "/IDOTA2Match_570/GetMatchDetails/v1"
	cardPath     = "/IDOTA2Match_570/GetProfileCard/v1"
)
