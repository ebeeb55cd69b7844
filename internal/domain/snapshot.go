package domain

// Team identifies one side of a match.
type Team string

const (
	TeamRadiant   Team = "radiant"
	TeamDire      Team = "dire"
	TeamSpectator Team = "spectator"
	TeamNone      Team = "none"
)

// Known map.game_state values we care about.
const (
	StateHeroSelection  = "DOTA_GAMERULES_STATE_HERO_SELECTION"
	StateStrategyTime   = "DOTA_GAMERULES_STATE_STRATEGY_TIME"
	StateTeamShowcase   = "DOTA_GAMERULES_STATE_TEAM_SHOWCASE"
	StatePreGame        = "DOTA_GAMERULES_STATE_PRE_GAME"
	StateInProgress     = "DOTA_GAMERULES_STATE_GAME_IN_PROGRESS"
	StatePostGame       = "DOTA_GAMERULES_STATE_POST_GAME"
	StateWaitForPlayers = "DOTA_GAMERULES_STATE_WAIT_FOR_PLAYERS_TO_LOAD"
)

// Snapshot is one full GSI payload from the live feed. The schema is typed
// on purpose: the differ walks known sections so upstream schema drift fails
// loudly instead of silently skipping fields.
type Snapshot struct {
	Auth       *Auth           `json:"auth,omitempty"`
	Provider   *Provider       `json:"provider,omitempty"`
	Map        *MapState       `json:"map,omitempty"`
	Player     *PlayerState    `json:"player,omitempty"`
	Hero       *HeroState      `json:"hero,omitempty"`
	Items      map[string]Item `json:"items,omitempty"`
	Events     []GameEvent     `json:"events,omitempty"`
	Previously *Snapshot       `json:"previously,omitempty"`
	Added      *Snapshot       `json:"added,omitempty"`
}

// Auth carries the per-viewer token from the GSI config file.
type Auth struct {
	Token string `json:"token"`
}

// Provider is feed metadata supplied by the game client.
type Provider struct {
	Name      string `json:"name"`
	AppID     int    `json:"appid"`
	Version   int    `json:"version"`
	Timestamp int64  `json:"timestamp"`
}

// MapState is the match-level section of a snapshot.
type MapState struct {
	MatchID      string `json:"matchid"`
	GameTime     int    `json:"game_time"`
	ClockTime    int    `json:"clock_time"`
	GameState    string `json:"game_state"`
	Paused       bool   `json:"paused"`
	WinTeam      string `json:"win_team"`
	CustomGame   string `json:"customgamename"`
	RadiantScore int    `json:"radiant_score"`
	DireScore    int    `json:"dire_score"`
}

// PlayerState is the viewer's own player section.
type PlayerState struct {
	SteamID    string `json:"steamid"`
	AccountID  string `json:"accountid"`
	Name       string `json:"name"`
	Activity   string `json:"activity"`
	TeamName   string `json:"team_name"`
	Kills      int    `json:"kills"`
	Deaths     int    `json:"deaths"`
	Assists    int    `json:"assists"`
	KillStreak int    `json:"kill_streak"`
	Gold       int    `json:"gold"`
}

// HeroState is the picked hero section.
type HeroState struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Level         int    `json:"level"`
	Alive         bool   `json:"alive"`
	HealthPercent int    `json:"health_percent"`
}

// Item is one inventory slot.
type Item struct {
	Name      string `json:"name"`
	Purchaser *int   `json:"purchaser,omitempty"`
	CanCast   bool   `json:"can_cast"`
	Cooldown  int    `json:"cooldown"`
	Charges   int    `json:"charges"`
}

// GameEvent is one discrete event reported in the snapshot's event list.
type GameEvent struct {
	GameTime  int    `json:"game_time"`
	EventType string `json:"event_type"`
	PlayerID  int    `json:"player_id"`
	Team      string `json:"team"`
	KillerID  int    `json:"killer_player_id"`
	SnatchedC int    `json:"snatched,omitempty"`
}

// Discrete event types surfaced via events[].
const (
	EventRoshanKilled  = "roshan_killed"
	EventAegisPickedUp = "aegis_picked_up"
	EventAegisDenied   = "aegis_denied"
	EventTip           = "tip"
	EventBountyPickup  = "bounty_rune_pickup"
)

// Overlay visibility phases derived from a snapshot.
const (
	PhaseMenu       = "menu"
	PhaseSpectating = "spectating"
	PhaseArcade     = "arcade"
	PhaseStrategy   = "strategy"
	PhasePlaying    = "playing"
)

// Phase buckets the snapshot into the overlay phase it should drive. The
// strategy phase covers pick and showcase screens where the overlay must
// block the enemy draft.
func (s *Snapshot) Phase() string {
	if s == nil || s.Map == nil {
		return PhaseMenu
	}
	if s.IsSpectating() {
		return PhaseSpectating
	}
	if s.IsArcade() {
		return PhaseArcade
	}
	switch s.Map.GameState {
	case StateHeroSelection, StateStrategyTime, StateTeamShowcase:
		return PhaseStrategy
	case StateWaitForPlayers, StatePreGame, StateInProgress, StatePostGame:
		return PhasePlaying
	}
	return PhaseMenu
}

// MatchID returns the snapshot's match id, or "" when absent.
func (s *Snapshot) MatchID() string {
	if s == nil || s.Map == nil {
		return ""
	}
	return s.Map.MatchID
}

// WinTeam returns the decided winner, or TeamNone while undecided.
func (s *Snapshot) WinTeam() Team {
	if s == nil || s.Map == nil || s.Map.WinTeam == "" {
		return TeamNone
	}
	return Team(s.Map.WinTeam)
}

// PlayerTeam returns the viewer's side for this snapshot.
func (s *Snapshot) PlayerTeam() Team {
	if s == nil || s.Player == nil || s.Player.TeamName == "" {
		return TeamNone
	}
	return Team(s.Player.TeamName)
}

// IsSpectating reports whether the feed is watching someone else's game.
func (s *Snapshot) IsSpectating() bool {
	team := s.PlayerTeam()
	return team == TeamSpectator || (s != nil && s.Player != nil && s.Player.Activity == "watching")
}

// IsArcade reports whether the map is a custom (non-standard) game.
func (s *Snapshot) IsArcade() bool {
	return s != nil && s.Map != nil && s.Map.CustomGame != ""
}

// IsPlaying reports whether the viewer is actively playing a real match.
func (s *Snapshot) IsPlaying() bool {
	if s == nil || s.Player == nil {
		return false
	}
	return s.Player.Activity == "playing" && !s.IsSpectating() && !s.IsArcade()
}
