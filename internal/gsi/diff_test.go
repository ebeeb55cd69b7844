package gsi

import (
	"reflect"
	"testing"

	"dota-events-service/internal/domain"
)

func baseSnapshot() *domain.Snapshot {
	purchaser := 4
	return &domain.Snapshot{
		Map: &domain.MapState{
			MatchID:   "7000000001",
			GameTime:  120,
			ClockTime: 30,
			GameState: domain.StateInProgress,
			WinTeam:   "none",
		},
		Player: &domain.PlayerState{
			SteamID:  "76561198000000001",
			Activity: "playing",
			TeamName: "radiant",
			Kills:    2,
		},
		Hero: &domain.HeroState{ID: 14, Name: "npc_dota_hero_pudge", Alive: true},
		Items: map[string]domain.Item{
			"teleport0": {Name: "item_tpscroll", Purchaser: &purchaser, Charges: 1},
		},
		Events: []domain.GameEvent{
			{GameTime: 100, EventType: domain.EventRoshanKilled, Team: "dire"},
		},
	}
}

func TestDiffIdenticalSnapshotsIsEmpty(t *testing.T) {
	snap := baseSnapshot()
	if changes := Diff(snap, snap); len(changes) != 0 {
		t.Fatalf("expected no changes diffing a snapshot against itself, got %v", changes)
	}
}

func TestDiffIsDeterministic(t *testing.T) {
	prev := baseSnapshot()
	cur := baseSnapshot()
	cur.Player.Kills = 3
	cur.Map.GameTime = 150

	first := Diff(prev, cur)
	for i := 0; i < 5; i++ {
		if again := Diff(prev, cur); !reflect.DeepEqual(first, again) {
			t.Fatalf("expected stable output, got %v then %v", first, again)
		}
	}
}

func TestDiffFirstTickEmitsEveryLeaf(t *testing.T) {
	cur := baseSnapshot()
	changes := Diff(nil, cur)

	paths := make(map[string]bool, len(changes))
	for _, c := range changes {
		paths[c.Path] = true
	}
	for _, want := range []string{
		"map:matchid", "map:game_state", "player:activity",
		"hero:name", "items:teleport0:purchaser", "events:0",
	} {
		if !paths[want] {
			t.Fatalf("expected first tick to emit %s, got %v", want, changes)
		}
	}
}

func TestDiffEmitsOnlyChangedScalars(t *testing.T) {
	prev := baseSnapshot()
	cur := baseSnapshot()
	cur.Player.KillStreak = 4
	cur.Map.WinTeam = "radiant"

	changes := Diff(prev, cur)
	want := []domain.ChangeEvent{
		{Path: "map:win_team", Value: "radiant"},
		{Path: "player:kill_streak", Value: 4},
	}
	if !reflect.DeepEqual(changes, want) {
		t.Fatalf("expected %v, got %v", want, changes)
	}
}

func TestDiffOrdersSectionsBySchema(t *testing.T) {
	prev := baseSnapshot()
	cur := baseSnapshot()
	cur.Hero.Level = 2
	cur.Map.GameTime = 180
	cur.Player.Gold = 600

	changes := Diff(prev, cur)
	gotPaths := make([]string, 0, len(changes))
	for _, c := range changes {
		gotPaths = append(gotPaths, c.Path)
	}
	want := []string{"map:game_time", "player:gold", "hero:level"}
	if !reflect.DeepEqual(gotPaths, want) {
		t.Fatalf("expected section order %v, got %v", want, gotPaths)
	}
}

func TestDiffNewItemSlotEmitsAllLeaves(t *testing.T) {
	prev := baseSnapshot()
	cur := baseSnapshot()
	cur.Items = map[string]domain.Item{
		"teleport0": prev.Items["teleport0"],
		"slot0":     {Name: "item_blink", CanCast: true},
	}

	changes := Diff(prev, cur)
	paths := make(map[string]bool, len(changes))
	for _, c := range changes {
		paths[c.Path] = true
	}
	if !paths["items:slot0:name"] || !paths["items:slot0:can_cast"] {
		t.Fatalf("expected new slot leaves, got %v", changes)
	}
	if paths["items:slot0:purchaser"] {
		t.Fatalf("nil purchaser must not emit, got %v", changes)
	}
	if paths["items:teleport0:name"] {
		t.Fatalf("unchanged slot must not emit, got %v", changes)
	}
}

func TestDiffDedupsGameEventsAcrossTicks(t *testing.T) {
	prev := baseSnapshot()
	cur := baseSnapshot()
	cur.Events = append([]domain.GameEvent{}, prev.Events...)
	cur.Events = append(cur.Events, domain.GameEvent{GameTime: 140, EventType: domain.EventAegisPickedUp, PlayerID: 3})

	changes := Diff(prev, cur)
	if len(changes) != 1 {
		t.Fatalf("expected only the new event, got %v", changes)
	}
	if changes[0].Path != "events:1" {
		t.Fatalf("expected events:1 path, got %s", changes[0].Path)
	}
	ev, ok := changes[0].Value.(domain.GameEvent)
	if !ok || ev.EventType != domain.EventAegisPickedUp {
		t.Fatalf("expected aegis event payload, got %v", changes[0].Value)
	}
}

func TestDiffNilCurrentSectionEmitsNothing(t *testing.T) {
	prev := baseSnapshot()
	cur := &domain.Snapshot{Map: prev.Map}
	if changes := Diff(prev, cur); len(changes) != 0 {
		t.Fatalf("expected no synthetic deletions, got %v", changes)
	}
}
