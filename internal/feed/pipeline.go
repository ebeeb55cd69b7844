package feed

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"dota-events-service/internal/dispatch"
	"dota-events-service/internal/domain"
	"dota-events-service/internal/gsi"
	"dota-events-service/internal/lifecycle"
	"dota-events-service/internal/metrics"
	"dota-events-service/internal/session"
	"dota-events-service/internal/timeutil"
)

// Pipeline processes one live-feed snapshot end to end: resolve the session,
// diff against the previous tick, advance the market state machine, then
// dispatch change events to the registered handlers.
type Pipeline struct {
	registry *session.Registry
	bus      *dispatch.Bus
	ctrl     *lifecycle.Controller
	logger   *slog.Logger
	metrics  *metrics.Recorder
	clock    timeutil.Clock

	mu     sync.Mutex
	states map[string]*feedState
}

type feedState struct {
	mu       sync.Mutex
	prev     *domain.Snapshot
	matchID  string
	phase    string
	seen     map[domain.EventKey]struct{}
	lastSeen time.Time
}

// NewPipeline creates a pipeline. Handlers are registered separately on the
// bus before traffic arrives.
func NewPipeline(registry *session.Registry, bus *dispatch.Bus, ctrl *lifecycle.Controller, logger *slog.Logger, rec *metrics.Recorder, clock timeutil.Clock) *Pipeline {
	return &Pipeline{
		registry: registry,
		bus:      bus,
		ctrl:     ctrl,
		logger:   logger,
		metrics:  rec,
		clock:    timeutil.Resolve(clock),
		states:   make(map[string]*feedState),
	}
}

// Process ingests one snapshot. The returned error is only for request-level
// failures (unknown token); handler errors never propagate back to the feed.
func (p *Pipeline) Process(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil || snap.Auth == nil {
		return session.ErrUnknownToken
	}
	sess, err := p.registry.Lookup(ctx, snap.Auth.Token)
	if err != nil {
		return err
	}
	reconcileIdentity(sess, snap)

	fs := p.state(sess.Token)
	fs.mu.Lock()
	fs.lastSeen = p.clock()

	if id := snap.MatchID(); id != fs.matchID {
		fs.matchID = id
		fs.seen = make(map[domain.EventKey]struct{})
	}

	changes := gsi.Diff(fs.prev, snap)
	changes = fs.filterSeenEvents(changes)
	fs.prev = snap

	phase := snap.Phase()
	prevPhase := fs.phase
	fs.phase = phase
	fs.mu.Unlock()

	p.metrics.RecordSnapshot()

	p.ctrl.Tick(ctx, sess, snap)

	if phase != prevPhase {
		// Leaving the game with a market still open means the feed will never
		// show us the winner; settle from the recorded outcome instead.
		if phase == domain.PhaseMenu && p.ctrl.State(sess.Token) != domain.Idle {
			p.ctrl.SettleDisconnected(ctx, sess.Token)
		}
		p.bus.Dispatch(ctx, dispatch.Event{
			Session: sess.Token,
			Name:    domain.EventPhaseChange,
			Value:   domain.PhaseChange{From: prevPhase, To: phase},
		})
	}

	p.bus.Dispatch(ctx, dispatch.Event{Session: sess.Token, Name: domain.EventNewData, Value: snap})
	for _, change := range changes {
		p.bus.Dispatch(ctx, dispatch.Event{Session: sess.Token, Name: change.Path, Value: change.Value})
		if ev, ok := change.Value.(domain.GameEvent); ok && strings.HasPrefix(change.Path, "events:") {
			p.bus.Dispatch(ctx, dispatch.Event{Session: sess.Token, Name: "event:" + ev.EventType, Value: ev})
		}
	}
	return nil
}

// Snapshot returns the most recent snapshot for a session, or nil.
func (p *Pipeline) Snapshot(token string) *domain.Snapshot {
	fs := p.state(token)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.prev
}

// Stale returns the sessions that have not posted a snapshot since the
// cutoff. Sessions that never posted are not reported.
func (p *Pipeline) Stale(cutoff time.Time) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for token, fs := range p.states {
		fs.mu.Lock()
		if !fs.lastSeen.IsZero() && fs.lastSeen.Before(cutoff) {
			out = append(out, token)
		}
		fs.mu.Unlock()
	}
	return out
}

// Forget drops per-session feed state. Used after a stale session settles.
func (p *Pipeline) Forget(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.states, token)
}

func (p *Pipeline) state(token string) *feedState {
	p.mu.Lock()
	defer p.mu.Unlock()
	fs, ok := p.states[token]
	if !ok {
		fs = &feedState{seen: make(map[domain.EventKey]struct{})}
		p.states[token] = fs
	}
	return fs
}

// filterSeenEvents drops synthetic event entries whose (game_time, type) key
// already fired this match. The differ only dedups against the immediately
// previous tick; an event that drops out of the list and reappears later
// would otherwise fire twice.
func (fs *feedState) filterSeenEvents(changes []domain.ChangeEvent) []domain.ChangeEvent {
	out := changes[:0]
	for _, change := range changes {
		if ev, ok := change.Value.(domain.GameEvent); ok && strings.HasPrefix(change.Path, "events:") {
			key := ev.Key()
			if _, dup := fs.seen[key]; dup {
				continue
			}
			fs.seen[key] = struct{}{}
		}
		out = append(out, change)
	}
	return out
}

func reconcileIdentity(sess *session.Session, snap *domain.Snapshot) {
	if snap.Player == nil {
		return
	}
	id, err := strconv.ParseInt(snap.Player.AccountID, 10, 64)
	if err != nil {
		id = 0
	}
	sess.AdoptIdentity(id, snap.Player.SteamID)
}
