package domain

// ChangeEvent is one leaf-level difference between two snapshots. Path is a
// colon-joined section path ("player:kill_streak", "items:teleport0:purchaser",
// "events:2"); Value is the scalar at that path in the newer snapshot, except
// for synthetic events:N entries where Value is the GameEvent itself.
type ChangeEvent struct {
	Path  string
	Value any
}

// Names of synthetic/derived dispatcher events.
const (
	EventNewData     = "newdata"
	EventPhaseChange = "visibility"

	PathMapGameState = "map:game_state"
	PathMapWinTeam   = "map:win_team"
	PathMapPaused    = "map:paused"
	PathPlayerKills  = "player:kills"
	PathPlayerDeaths = "player:deaths"
	PathPlayerStreak = "player:kill_streak"
	PathHeroName     = "hero:name"
	PathHeroAlive    = "hero:alive"
)

// PhaseChange reports an overlay visibility transition. Emitted only when
// the derived phase actually changes.
type PhaseChange struct {
	From string
	To   string
}

// EventKey dedups discrete game events across ticks.
type EventKey struct {
	GameTime  int
	EventType string
}

// Key returns the dedup key for a game event.
func (e GameEvent) Key() EventKey {
	return EventKey{GameTime: e.GameTime, EventType: e.EventType}
}
