package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dota-events-service/internal/clients"
	"dota-events-service/internal/domain"
	"dota-events-service/internal/kv"
)

// scriptedUpstream serves canned answers and counts calls.
type scriptedUpstream struct {
	mu          sync.Mutex
	serverCalls int
	rosterCalls int
	serverAfter int // calls before a server is found; -1 means never
	serverID    string
	rosterSteps []*domain.MatchRecord // consumed in order; last repeats
	rosterErr   error
	cardCalls   atomic.Int64
	cardsByID   map[int64]domain.RankCard
}

func (u *scriptedUpstream) ServerForAccount(_ context.Context, _ int64) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.serverCalls++
	if u.serverAfter < 0 || u.serverCalls <= u.serverAfter {
		return "", clients.ErrNoServer
	}
	return u.serverID, nil
}

func (u *scriptedUpstream) RealtimeStats(_ context.Context, _ string) (*domain.MatchRecord, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rosterCalls++
	if u.rosterErr != nil {
		return nil, u.rosterErr
	}
	idx := u.rosterCalls - 1
	if idx >= len(u.rosterSteps) {
		idx = len(u.rosterSteps) - 1
	}
	return u.rosterSteps[idx], nil
}

func (u *scriptedUpstream) RankCard(_ context.Context, id int64) (*domain.RankCard, error) {
	u.cardCalls.Add(1)
	card, ok := u.cardsByID[id]
	if !ok {
		return nil, errors.New("no card")
	}
	return &card, nil
}

func fastOptions() Options {
	return Options{
		DiscoveryInterval: time.Millisecond,
		DiscoveryMax:      2 * time.Millisecond,
		DiscoveryAttempts: 5,
		RosterInterval:    time.Millisecond,
		RosterAttempts:    4,
		HeroInterval:      time.Millisecond,
		HeroAttempts:      3,
	}
}

func fullRoster(matchID string, withHeroes bool) *domain.MatchRecord {
	record := &domain.MatchRecord{
		MatchID:      matchID,
		ServerHandle: "srv",
		LobbyType:    7,
		Teams:        []domain.RosterTeam{{}, {}},
	}
	for side := range record.Teams {
		for slot := 0; slot < 5; slot++ {
			p := domain.RosterPlayer{AccountID: int64(1 + side*5 + slot)}
			if withHeroes {
				p.HeroID = 1 + side*5 + slot
			}
			record.Teams[side].Players = append(record.Teams[side].Players, p)
		}
	}
	return record
}

func TestResolveCompleteRoster(t *testing.T) {
	up := &scriptedUpstream{
		serverAfter: 2,
		serverID:    "srv",
		rosterSteps: []*domain.MatchRecord{fullRoster("m1", true)},
	}
	store := kv.NewMemoryStore()
	r := New(up, up, store, nil, fastOptions())

	record, err := r.Resolve(context.Background(), 42, "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !record.Complete() {
		t.Fatalf("expected complete record, got %+v", record)
	}
	if up.serverCalls != 3 {
		t.Fatalf("expected 3 discovery calls, got %d", up.serverCalls)
	}

	var cached domain.MatchRecord
	if err := store.GetJSON(context.Background(), kv.MatchRecordKey("m1"), &cached); err != nil {
		t.Fatalf("expected cached record: %v", err)
	}
	lobby, err := store.Get(context.Background(), kv.MatchLobbyType("m1"))
	if err != nil || lobby != "7" {
		t.Fatalf("expected lobby type cached, got %q err %v", lobby, err)
	}
}

func TestResolveServerNeverFound(t *testing.T) {
	up := &scriptedUpstream{serverAfter: -1}
	r := New(up, up, kv.NewMemoryStore(), nil, fastOptions())

	_, err := r.Resolve(context.Background(), 42, "m1")
	if !errors.Is(err, ErrServerNotFound) {
		t.Fatalf("expected ErrServerNotFound, got %v", err)
	}
	if up.serverCalls != 5 {
		t.Fatalf("expected discovery to stop at 5 attempts, got %d", up.serverCalls)
	}
}

func TestResolvePartialRosterCached(t *testing.T) {
	// Account ids appear on the second roster poll; heroes never do.
	up := &scriptedUpstream{
		serverAfter: 0,
		serverID:    "srv",
		rosterSteps: []*domain.MatchRecord{
			{MatchID: "m2", Teams: []domain.RosterTeam{{}, {}}},
			fullRoster("m2", false),
		},
	}
	store := kv.NewMemoryStore()
	r := New(up, up, store, nil, fastOptions())

	record, err := r.Resolve(context.Background(), 42, "m2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !record.HasAccountIDs() || record.HasHeroes() {
		t.Fatalf("expected partial record, got %+v", record)
	}

	var cached domain.MatchRecord
	if err := store.GetJSON(context.Background(), kv.MatchRecordKey("m2"), &cached); err != nil {
		t.Fatalf("expected partial record cached: %v", err)
	}
	if !cached.HasAccountIDs() {
		t.Fatalf("cached record missing account ids: %+v", cached)
	}
}

func TestResolveRosterNeverReady(t *testing.T) {
	up := &scriptedUpstream{
		serverAfter: 0,
		serverID:    "srv",
		rosterSteps: []*domain.MatchRecord{{MatchID: "m3", Teams: []domain.RosterTeam{{}, {}}}},
	}
	r := New(up, up, kv.NewMemoryStore(), nil, fastOptions())

	_, err := r.Resolve(context.Background(), 42, "m3")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestResolveRejectedUpstreamStopsImmediately(t *testing.T) {
	up := &scriptedUpstream{
		serverAfter: 0,
		serverID:    "srv",
		rosterErr:   fmt.Errorf("%w: bad key", clients.ErrRejected),
	}
	r := New(up, up, kv.NewMemoryStore(), nil, fastOptions())

	_, err := r.Resolve(context.Background(), 42, "m3")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if up.rosterCalls != 1 {
		t.Fatalf("expected a single roster call, got %d", up.rosterCalls)
	}
}

func TestResolveUsesCachedCompleteRecord(t *testing.T) {
	up := &scriptedUpstream{serverAfter: -1} // upstream would fail if consulted
	store := kv.NewMemoryStore()
	if err := store.SetJSON(context.Background(), kv.MatchRecordKey("m4"), fullRoster("m4", true)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r := New(up, up, store, nil, fastOptions())

	record, err := r.Resolve(context.Background(), 42, "m4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !record.Complete() {
		t.Fatalf("expected cached complete record")
	}
	if up.serverCalls != 0 {
		t.Fatalf("expected no upstream calls, got %d", up.serverCalls)
	}
}

func TestConcurrentResolveCollapses(t *testing.T) {
	up := &scriptedUpstream{
		serverAfter: 1,
		serverID:    "srv",
		rosterSteps: []*domain.MatchRecord{fullRoster("m5", true)},
	}
	r := New(up, up, kv.NewMemoryStore(), nil, fastOptions())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Resolve(context.Background(), 42, "m5"); err != nil {
				t.Errorf("resolve: %v", err)
			}
		}()
	}
	wg.Wait()

	// One in-flight sequence at a time; stragglers may trigger at most one
	// more after the first completes and the cache satisfies the rest.
	if up.serverCalls > 4 {
		t.Fatalf("expected collapsed discovery, got %d calls", up.serverCalls)
	}
}

func TestCardsCacheAndRefresh(t *testing.T) {
	up := &scriptedUpstream{cardsByID: map[int64]domain.RankCard{
		7: {AccountID: 7, RankTier: 61},
	}}
	store := kv.NewMemoryStore()
	r := New(up, up, store, nil, fastOptions())

	cards := r.Cards(context.Background(), []int64{7}, false)
	if len(cards) != 1 || cards[0].RankTier != 61 {
		t.Fatalf("unexpected cards %+v", cards)
	}
	if got := up.cardCalls.Load(); got != 1 {
		t.Fatalf("expected 1 fetch, got %d", got)
	}

	// Cached on the second read.
	r.Cards(context.Background(), []int64{7}, false)
	if got := up.cardCalls.Load(); got != 1 {
		t.Fatalf("expected cache hit, got %d fetches", got)
	}

	// Refresh bypasses the cache.
	r.Cards(context.Background(), []int64{7}, true)
	if got := up.cardCalls.Load(); got != 2 {
		t.Fatalf("expected refresh fetch, got %d", got)
	}
}

func TestCardsToleratesFetchFailure(t *testing.T) {
	up := &scriptedUpstream{cardsByID: map[int64]domain.RankCard{}}
	r := New(up, up, kv.NewMemoryStore(), nil, fastOptions())

	cards := r.Cards(context.Background(), []int64{9}, false)
	if len(cards) != 1 || cards[0].AccountID != 9 || cards[0].RankTier != 0 {
		t.Fatalf("expected zero card fallback, got %+v", cards)
	}
}
