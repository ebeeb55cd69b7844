package gsi

import (
	"sort"
	"strconv"

	"dota-events-service/internal/domain"
)

// Diff turns two successive snapshots into an ordered list of change events.
// It is pure: the same input pair always yields the same list in the same
// order. Traversal follows the schema's declaration order for the map,
// player, hero and items sections, then the events list; item slots are
// walked in sorted-key order since JSON objects carry no reliable ordering.
//
// A scalar leaf is emitted when it differs from the previous snapshot, with a
// missing previous section counting as changed for every leaf beneath it —
// this covers the GSI "added" tagging, where a newly present object must
// still produce per-leaf events one level down. Nothing is emitted for
// values that exist only in the previous snapshot (no synthetic deletions).
//
// Discrete game events are surfaced as synthetic "events:N" entries carrying
// the event itself, deduplicated against the previous snapshot's event list
// by (game_time, event_type).
func Diff(prev, cur *domain.Snapshot) []domain.ChangeEvent {
	if cur == nil {
		return nil
	}

	var out []domain.ChangeEvent
	out = diffMap(out, mapSection(prev), cur.Map)
	out = diffPlayer(out, playerSection(prev), cur.Player)
	out = diffHero(out, heroSection(prev), cur.Hero)
	out = diffItems(out, itemsSection(prev), cur.Items)
	out = diffEvents(out, eventsSection(prev), cur.Events)
	return out
}

func mapSection(s *domain.Snapshot) *domain.MapState {
	if s == nil {
		return nil
	}
	return s.Map
}

func playerSection(s *domain.Snapshot) *domain.PlayerState {
	if s == nil {
		return nil
	}
	return s.Player
}

func heroSection(s *domain.Snapshot) *domain.HeroState {
	if s == nil {
		return nil
	}
	return s.Hero
}

func itemsSection(s *domain.Snapshot) map[string]domain.Item {
	if s == nil {
		return nil
	}
	return s.Items
}

func eventsSection(s *domain.Snapshot) []domain.GameEvent {
	if s == nil {
		return nil
	}
	return s.Events
}

type emitter struct {
	out    []domain.ChangeEvent
	prefix string
	fresh  bool // previous section missing: every leaf counts as changed
}

func (e *emitter) leaf(key string, prevVal, curVal any) {
	if curVal == nil {
		return
	}
	if !e.fresh && prevVal == curVal {
		return
	}
	e.out = append(e.out, domain.ChangeEvent{Path: e.prefix + key, Value: curVal})
}

func diffMap(out []domain.ChangeEvent, prev, cur *domain.MapState) []domain.ChangeEvent {
	if cur == nil {
		return out
	}
	e := &emitter{out: out, prefix: "map:", fresh: prev == nil}
	if prev == nil {
		prev = &domain.MapState{}
	}
	e.leaf("matchid", prev.MatchID, cur.MatchID)
	e.leaf("game_time", prev.GameTime, cur.GameTime)
	e.leaf("clock_time", prev.ClockTime, cur.ClockTime)
	e.leaf("game_state", prev.GameState, cur.GameState)
	e.leaf("paused", prev.Paused, cur.Paused)
	e.leaf("win_team", prev.WinTeam, cur.WinTeam)
	e.leaf("customgamename", prev.CustomGame, cur.CustomGame)
	e.leaf("radiant_score", prev.RadiantScore, cur.RadiantScore)
	e.leaf("dire_score", prev.DireScore, cur.DireScore)
	return e.out
}

func diffPlayer(out []domain.ChangeEvent, prev, cur *domain.PlayerState) []domain.ChangeEvent {
	if cur == nil {
		return out
	}
	e := &emitter{out: out, prefix: "player:", fresh: prev == nil}
	if prev == nil {
		prev = &domain.PlayerState{}
	}
	e.leaf("steamid", prev.SteamID, cur.SteamID)
	e.leaf("accountid", prev.AccountID, cur.AccountID)
	e.leaf("name", prev.Name, cur.Name)
	e.leaf("activity", prev.Activity, cur.Activity)
	e.leaf("team_name", prev.TeamName, cur.TeamName)
	e.leaf("kills", prev.Kills, cur.Kills)
	e.leaf("deaths", prev.Deaths, cur.Deaths)
	e.leaf("assists", prev.Assists, cur.Assists)
	e.leaf("kill_streak", prev.KillStreak, cur.KillStreak)
	e.leaf("gold", prev.Gold, cur.Gold)
	return e.out
}

func diffHero(out []domain.ChangeEvent, prev, cur *domain.HeroState) []domain.ChangeEvent {
	if cur == nil {
		return out
	}
	e := &emitter{out: out, prefix: "hero:", fresh: prev == nil}
	if prev == nil {
		prev = &domain.HeroState{}
	}
	e.leaf("id", prev.ID, cur.ID)
	e.leaf("name", prev.Name, cur.Name)
	e.leaf("level", prev.Level, cur.Level)
	e.leaf("alive", prev.Alive, cur.Alive)
	e.leaf("health_percent", prev.HealthPercent, cur.HealthPercent)
	return e.out
}

func diffItems(out []domain.ChangeEvent, prev, cur map[string]domain.Item) []domain.ChangeEvent {
	if len(cur) == 0 {
		return out
	}
	slots := make([]string, 0, len(cur))
	for slot := range cur {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	for _, slot := range slots {
		curItem := cur[slot]
		prevItem, had := prev[slot]
		e := &emitter{out: out, prefix: "items:" + slot + ":", fresh: !had}
		e.leaf("name", prevItem.Name, curItem.Name)
		e.leaf("purchaser", derefInt(prevItem.Purchaser), derefInt(curItem.Purchaser))
		e.leaf("can_cast", prevItem.CanCast, curItem.CanCast)
		e.leaf("cooldown", prevItem.Cooldown, curItem.Cooldown)
		e.leaf("charges", prevItem.Charges, curItem.Charges)
		out = e.out
	}
	return out
}

func derefInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func diffEvents(out []domain.ChangeEvent, prev, cur []domain.GameEvent) []domain.ChangeEvent {
	if len(cur) == 0 {
		return out
	}
	seen := make(map[domain.EventKey]struct{}, len(prev))
	for _, ev := range prev {
		seen[ev.Key()] = struct{}{}
	}
	for i, ev := range cur {
		if _, ok := seen[ev.Key()]; ok {
			continue
		}
		out = append(out, domain.ChangeEvent{Path: "events:" + strconv.Itoa(i), Value: ev})
	}
	return out
}
