package kv

// Per-session and per-match key namespaces. Session state is keyed by the
// viewer token so a restarted process (or a second instance) picks up where
// the previous one left off; lobby type is keyed by match id because it is
// shared by everyone watching that match.
const (
	fieldMatchID   = "matchId"
	fieldMarketID  = "marketId"
	fieldTeam      = "playingTeam"
	fieldHero      = "playingHero"
	fieldHeroSlot  = "playingHeroSlot"
	fieldRoshan    = "roshan"
	fieldAegis     = "aegis"
	fieldLobbyType = "lobbyType"
	fieldServerID  = "steamServerId"
)

func sessionKey(sessionID, field string) string { return sessionID + ":" + field }
func matchKey(matchID, field string) string     { return matchID + ":" + field }

// SessionMatchID is where the session's tracked match id lives.
func SessionMatchID(sessionID string) string { return sessionKey(sessionID, fieldMatchID) }

// SessionMarketID is where the platform's id for the open market lives.
func SessionMarketID(sessionID string) string { return sessionKey(sessionID, fieldMarketID) }

// SessionTeam is where the viewer's side for the tracked match lives.
func SessionTeam(sessionID string) string { return sessionKey(sessionID, fieldTeam) }

// SessionHero is where the viewer's hero name lives.
func SessionHero(sessionID string) string { return sessionKey(sessionID, fieldHero) }

// SessionHeroSlot is where the viewer's hero slot lives.
func SessionHeroSlot(sessionID string) string { return sessionKey(sessionID, fieldHeroSlot) }

// SessionRoshan is where the Roshan respawn record lives.
func SessionRoshan(sessionID string) string { return sessionKey(sessionID, fieldRoshan) }

// SessionAegis is where the aegis expiry record lives.
func SessionAegis(sessionID string) string { return sessionKey(sessionID, fieldAegis) }

// MatchLobbyType is where the match's lobby type lives.
func MatchLobbyType(matchID string) string { return matchKey(matchID, fieldLobbyType) }

// MatchServerID is where the match's discovered server handle lives.
func MatchServerID(matchID string) string { return matchKey(matchID, fieldServerID) }

// MatchRecordKey is where the resolved roster record lives.
func MatchRecordKey(matchID string) string { return matchKey(matchID, "record") }

// RankCardKey is where a cached per-account rank card lives.
func RankCardKey(accountID int64) string {
	return "card:" + int64String(accountID)
}

// SessionKeys lists every per-session key cleared on match teardown.
func SessionKeys(sessionID string) []string {
	return []string{
		SessionMatchID(sessionID),
		SessionMarketID(sessionID),
		SessionTeam(sessionID),
		SessionHero(sessionID),
		SessionHeroSlot(sessionID),
		SessionRoshan(sessionID),
		SessionAegis(sessionID),
	}
}

// MatchKeys lists every per-match key cleared on match teardown.
func MatchKeys(matchID string) []string {
	if matchID == "" {
		return nil
	}
	return []string{
		MatchLobbyType(matchID),
		MatchServerID(matchID),
		MatchRecordKey(matchID),
	}
}
