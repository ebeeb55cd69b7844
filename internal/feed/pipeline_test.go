package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"dota-events-service/internal/announce"
	"dota-events-service/internal/clients"
	"dota-events-service/internal/dispatch"
	"dota-events-service/internal/domain"
	"dota-events-service/internal/kv"
	"dota-events-service/internal/lifecycle"
	"dota-events-service/internal/notify"
	"dota-events-service/internal/objectives"
	"dota-events-service/internal/session"
	"dota-events-service/internal/wager"
)

type noResults struct{}

func (noResults) MatchResult(context.Context, string) (*domain.MatchResult, error) {
	return nil, clients.ErrNoResult
}

type harness struct {
	pipeline *Pipeline
	bus      *dispatch.Bus
	store    *kv.MemoryStore
	platform *wager.MemoryPlatform
	notifier *notify.MemoryNotifier
	ctrl     *lifecycle.Controller
	sched    *announce.Scheduler
}

func newHarness(t *testing.T, clock func() time.Time) *harness {
	t.Helper()
	h := &harness{
		bus:      dispatch.NewBus(nil, nil),
		store:    kv.NewMemoryStore(),
		platform: wager.NewMemoryPlatform(),
		notifier: notify.NewMemoryNotifier(),
		sched:    announce.NewScheduler(),
	}
	t.Cleanup(h.sched.Stop)

	h.ctrl = lifecycle.New(h.store, h.platform, noResults{}, nil, h.sched, h.notifier, nil, nil, lifecycle.Options{
		ResultPollInterval: time.Millisecond,
		ResultPollAttempts: 2,
	})
	registry := session.NewRegistry(session.NewStaticDirectory(session.Entry{Token: "tok", Name: "viewer"}), nil)
	h.pipeline = NewPipeline(registry, h.bus, h.ctrl, nil, nil, clock)
	h.pipeline.RegisterHandlers(HandlerDeps{
		Objectives:  objectives.NewTracker(h.store, h.notifier, nil, clock),
		Announcer:   h.sched,
		Notifier:    h.notifier,
		StreakDelay: 10 * time.Millisecond,
	})
	return h
}

func feedSnapshot(matchID string, clockTime int) *domain.Snapshot {
	return &domain.Snapshot{
		Auth: &domain.Auth{Token: "tok"},
		Map: &domain.MapState{
			MatchID:   matchID,
			ClockTime: clockTime,
			GameState: domain.StateInProgress,
			WinTeam:   "none",
		},
		Player: &domain.PlayerState{
			AccountID: "42",
			Activity:  "playing",
			TeamName:  "radiant",
		},
		Hero: &domain.HeroState{ID: 14, Name: "npc_dota_hero_pudge", Alive: true},
	}
}

func TestProcessRejectsUnknownToken(t *testing.T) {
	h := newHarness(t, nil)
	snap := feedSnapshot("m1", 0)
	snap.Auth.Token = "bogus"
	if err := h.pipeline.Process(context.Background(), snap); !errors.Is(err, session.ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
}

func TestProcessRejectsMissingAuth(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.pipeline.Process(context.Background(), &domain.Snapshot{}); !errors.Is(err, session.ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
}

func TestProcessOpensAndSettlesMarket(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	if err := h.pipeline.Process(ctx, feedSnapshot("m1", 100)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if n := h.platform.OpenCount(); n != 1 {
		t.Fatalf("expected open market, got %d", n)
	}

	ended := feedSnapshot("m1", 2400)
	ended.Map.WinTeam = "radiant"
	if err := h.pipeline.Process(ctx, ended); err != nil {
		t.Fatalf("process: %v", err)
	}
	history := h.platform.History("tok")
	if len(history) != 2 || history[1] != wager.MarketWon {
		t.Fatalf("expected settlement, got %v", history)
	}
}

func TestProcessDispatchesChangePaths(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	var kills []int
	h.bus.Register(domain.PathPlayerKills, func(_ context.Context, ev dispatch.Event) error {
		kills = append(kills, ev.Value.(int))
		return nil
	})

	first := feedSnapshot("m1", 100)
	if err := h.pipeline.Process(ctx, first); err != nil {
		t.Fatalf("process: %v", err)
	}
	second := feedSnapshot("m1", 130)
	second.Player.Kills = 2
	if err := h.pipeline.Process(ctx, second); err != nil {
		t.Fatalf("process: %v", err)
	}

	// First tick is fresh so kills=0 fires too; then the increment.
	if len(kills) != 2 || kills[1] != 2 {
		t.Fatalf("unexpected kill events %v", kills)
	}
}

func TestRoshanEventStartsTimer(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, func() time.Time { return base })
	ctx := context.Background()

	if err := h.pipeline.Process(ctx, feedSnapshot("m1", 600)); err != nil {
		t.Fatalf("process: %v", err)
	}

	withEvent := feedSnapshot("m1", 620)
	withEvent.Events = []domain.GameEvent{{GameTime: 860, EventType: domain.EventRoshanKilled}}
	if err := h.pipeline.Process(ctx, withEvent); err != nil {
		t.Fatalf("process: %v", err)
	}

	timers := h.notifier.Named(notify.EventRoshanTimer)
	if len(timers) != 1 {
		t.Fatalf("expected one roshan timer, got %d", len(timers))
	}
	timer := timers[0].Payload.(domain.RoshanTimer)
	if timer.MinClock != "18:20" {
		t.Fatalf("unexpected window start %q", timer.MinClock)
	}

	var stored domain.RoshanTimer
	if err := h.store.GetJSON(ctx, kv.SessionRoshan("tok"), &stored); err != nil {
		t.Fatalf("expected persisted timer: %v", err)
	}
}

func TestReappearingEventFiresOnce(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	event := domain.GameEvent{GameTime: 860, EventType: domain.EventRoshanKilled}

	first := feedSnapshot("m1", 620)
	first.Events = []domain.GameEvent{event}
	if err := h.pipeline.Process(ctx, first); err != nil {
		t.Fatalf("process: %v", err)
	}
	// Event drops out of the list, then reappears two ticks later.
	if err := h.pipeline.Process(ctx, feedSnapshot("m1", 640)); err != nil {
		t.Fatalf("process: %v", err)
	}
	again := feedSnapshot("m1", 660)
	again.Events = []domain.GameEvent{event}
	if err := h.pipeline.Process(ctx, again); err != nil {
		t.Fatalf("process: %v", err)
	}

	if got := h.notifier.Named(notify.EventRoshanTimer); len(got) != 1 {
		t.Fatalf("expected a single roshan announcement, got %d", len(got))
	}
}

func TestEventDedupResetsOnNewMatch(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	event := domain.GameEvent{GameTime: 860, EventType: domain.EventRoshanKilled}

	first := feedSnapshot("m1", 620)
	first.Events = []domain.GameEvent{event}
	if err := h.pipeline.Process(ctx, first); err != nil {
		t.Fatalf("process: %v", err)
	}

	next := feedSnapshot("m2", 620)
	next.Events = []domain.GameEvent{event}
	if err := h.pipeline.Process(ctx, next); err != nil {
		t.Fatalf("process: %v", err)
	}

	if got := h.notifier.Named(notify.EventRoshanTimer); len(got) != 2 {
		t.Fatalf("expected per-match dedup reset, got %d announcements", len(got))
	}
}

func TestKillStreakAnnouncedAfterDelay(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	if err := h.pipeline.Process(ctx, feedSnapshot("m1", 600)); err != nil {
		t.Fatalf("process: %v", err)
	}
	streaking := feedSnapshot("m1", 630)
	streaking.Player.KillStreak = 4
	if err := h.pipeline.Process(ctx, streaking); err != nil {
		t.Fatalf("process: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(h.notifier.Named(notify.EventKillStreak)) == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("streak announcement never fired")
}

func TestKillStreakCancelledByDeath(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	if err := h.pipeline.Process(ctx, feedSnapshot("m1", 600)); err != nil {
		t.Fatalf("process: %v", err)
	}
	streaking := feedSnapshot("m1", 630)
	streaking.Player.KillStreak = 4
	if err := h.pipeline.Process(ctx, streaking); err != nil {
		t.Fatalf("process: %v", err)
	}
	died := feedSnapshot("m1", 635)
	died.Player.KillStreak = 0
	died.Player.Deaths = 1
	if err := h.pipeline.Process(ctx, died); err != nil {
		t.Fatalf("process: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if got := h.notifier.Named(notify.EventKillStreak); len(got) != 0 {
		t.Fatalf("expected cancelled streak, got %d announcements", len(got))
	}
}

func TestStaleSessionsReported(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clockNow := now
	h := newHarness(t, func() time.Time { return clockNow })
	ctx := context.Background()

	if err := h.pipeline.Process(ctx, feedSnapshot("m1", 600)); err != nil {
		t.Fatalf("process: %v", err)
	}

	if stale := h.pipeline.Stale(now.Add(-time.Minute)); len(stale) != 0 {
		t.Fatalf("expected no stale sessions, got %v", stale)
	}
	if stale := h.pipeline.Stale(now.Add(time.Minute)); len(stale) != 1 || stale[0] != "tok" {
		t.Fatalf("expected tok stale, got %v", stale)
	}

	h.pipeline.Forget("tok")
	if stale := h.pipeline.Stale(now.Add(time.Minute)); len(stale) != 0 {
		t.Fatalf("expected forgotten session, got %v", stale)
	}
}

func TestPhaseChangeNotifiedOnce(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	if err := h.pipeline.Process(ctx, feedSnapshot("m1", 600)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := h.pipeline.Process(ctx, feedSnapshot("m1", 630)); err != nil {
		t.Fatalf("process: %v", err)
	}

	got := h.notifier.Named(notify.EventVisibility)
	if len(got) != 1 {
		t.Fatalf("expected one visibility event, got %d", len(got))
	}
	payload := got[0].Payload.(map[string]string)
	if payload["to"] != domain.PhasePlaying {
		t.Fatalf("unexpected phase payload %v", payload)
	}
}

func TestLeavingGameSettlesOpenMarket(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	if err := h.pipeline.Process(ctx, feedSnapshot("m1", 600)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if n := h.platform.OpenCount(); n != 1 {
		t.Fatalf("expected open market, got %d", n)
	}

	// Back at the main menu: no map section at all.
	menu := &domain.Snapshot{Auth: &domain.Auth{Token: "tok"}}
	if err := h.pipeline.Process(ctx, menu); err != nil {
		t.Fatalf("process: %v", err)
	}

	// No recorded outcome is available, so the market refunds.
	history := h.platform.History("tok")
	if len(history) != 2 || history[1] != wager.MarketRefunded {
		t.Fatalf("expected refund after disconnect, got %v", history)
	}
	if st := h.ctrl.State("tok"); st != domain.Idle {
		t.Fatalf("expected idle after settlement, got %v", st)
	}
}

func TestSpectatingNeverOpensMarket(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	spec := feedSnapshot("m1", 600)
	spec.Player.TeamName = string(domain.TeamSpectator)
	if err := h.pipeline.Process(ctx, spec); err != nil {
		t.Fatalf("process: %v", err)
	}

	if n := h.platform.OpenCount(); n != 0 {
		t.Fatalf("expected no market while spectating, got %d", n)
	}
	got := h.notifier.Named(notify.EventVisibility)
	if len(got) != 1 || got[0].Payload.(map[string]string)["to"] != domain.PhaseSpectating {
		t.Fatalf("expected spectating phase event, got %v", got)
	}
}

func TestReplayedRoshanEventUsesEventAge(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, func() time.Time { return base })
	ctx := context.Background()

	// Reconnect mid-match: the first snapshot re-reports a kill from 300
	// game seconds earlier.
	snap := feedSnapshot("m1", 740)
	snap.Map.GameTime = 800
	snap.Events = []domain.GameEvent{{GameTime: 500, EventType: domain.EventRoshanKilled}}
	if err := h.pipeline.Process(ctx, snap); err != nil {
		t.Fatalf("process: %v", err)
	}

	timers := h.notifier.Named(notify.EventRoshanTimer)
	if len(timers) != 1 {
		t.Fatalf("expected one roshan timer, got %d", len(timers))
	}
	timer := timers[0].Payload.(domain.RoshanTimer)
	if timer.MinSeconds != 180 {
		t.Fatalf("expected window shrunk to 180s, got %d", timer.MinSeconds)
	}
	if timer.MinClock != "15:20" {
		t.Fatalf("unexpected window start %q", timer.MinClock)
	}
}
