package kv

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Set(ctx, SessionMatchID("tok"), "123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx, SessionMatchID("tok"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "123" {
		t.Fatalf("expected 123, got %q", got)
	}

	if err := store.Delete(ctx, SessionMatchID("tok")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, SessionMatchID("tok")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreMultiGetSkipsMissing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Set(ctx, "a", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "c", "3"); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.MultiGet(ctx, "a", "b", "c")
	if err != nil {
		t.Fatalf("multiget: %v", err)
	}
	if len(got) != 2 || got["a"] != "1" || got["c"] != "3" {
		t.Fatalf("unexpected result %v", got)
	}
}

func TestMemoryStoreJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	type record struct {
		MatchID string `json:"match_id"`
		Count   int    `json:"count"`
	}
	if err := store.SetJSON(ctx, "key", record{MatchID: "77", Count: 2}); err != nil {
		t.Fatalf("setjson: %v", err)
	}
	var out record
	if err := store.GetJSON(ctx, "key", &out); err != nil {
		t.Fatalf("getjson: %v", err)
	}
	if out.MatchID != "77" || out.Count != 2 {
		t.Fatalf("unexpected record %+v", out)
	}

	if err := store.GetJSON(ctx, "absent", &out); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionKeysCoverAllFields(t *testing.T) {
	keys := SessionKeys("tok")
	want := []string{
		"tok:matchId", "tok:playingTeam", "tok:playingHero",
		"tok:playingHeroSlot", "tok:roshan", "tok:aegis",
	}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("key %d: expected %q, got %q", i, k, keys[i])
		}
	}
}

func TestMatchKeysEmptyMatch(t *testing.T) {
	if got := MatchKeys(""); got != nil {
		t.Fatalf("expected nil for empty match id, got %v", got)
	}
	keys := MatchKeys("42")
	if len(keys) != 3 || keys[0] != "42:lobbyType" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestRankCardKey(t *testing.T) {
	if got := RankCardKey(9001); got != "card:9001" {
		t.Fatalf("unexpected key %q", got)
	}
}
