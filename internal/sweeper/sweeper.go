package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dota-events-service/internal/domain"
	"dota-events-service/internal/logging"
	"dota-events-service/internal/timeutil"
)

const defaultInterval = 30 * time.Second

// FeedTracker reports sessions whose feed has gone quiet.
type FeedTracker interface {
	Stale(cutoff time.Time) []string
	Forget(token string)
}

// Settler resolves a session whose feed died while a market was open.
type Settler interface {
	State(sessionID string) domain.LifecycleState
	SettleDisconnected(ctx context.Context, sessionID string)
}

// Sweeper periodically settles sessions stuck mid-match: a crashed game
// client never sends the final snapshot, so without the sweep an open
// market would sit unresolved forever.
type Sweeper struct {
	tracker    FeedTracker
	settler    Settler
	logger     *slog.Logger
	interval   time.Duration
	staleAfter time.Duration
	clock      timeutil.Clock

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool

	statusMu sync.RWMutex
	status   Status
}

// Status describes the recent health of the sweep loop.
type Status struct {
	LastSweep    time.Time
	LastSettled  int
	TotalSettled int
}

// New constructs a Sweeper with sane defaults.
func New(tracker FeedTracker, settler Settler, logger *slog.Logger, interval, staleAfter time.Duration, clock timeutil.Clock) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}
	if staleAfter <= 0 {
		staleAfter = 3 * time.Minute
	}
	return &Sweeper{
		tracker:    tracker,
		settler:    settler,
		logger:     logger,
		interval:   interval,
		staleAfter: staleAfter,
		clock:      timeutil.Resolve(clock),
		done:       make(chan struct{}),
	}
}

// Start begins sweeping until the context is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	s.startMu.Lock()
	if s.started {
		s.startMu.Unlock()
		return
	}
	s.started = true
	s.startMu.Unlock()

	s.ticker = time.NewTicker(s.interval)

	go func() {
		logging.Info(s.logger, "sweeper started", slog.Duration("interval", s.interval))
		for {
			select {
			case <-ctx.Done():
				s.stopTicker()
				logging.Info(s.logger, "sweeper stopped")
				return
			case <-s.done:
				s.stopTicker()
				logging.Info(s.logger, "sweeper stopped")
				return
			case <-s.ticker.C:
				s.SweepOnce(ctx)
			}
		}
	}()
}

// Stop halts the sweep loop.
func (s *Sweeper) Stop(ctx context.Context) error {
	_ = ctx
	s.stopOnce.Do(func() {
		close(s.done)
		s.stopTicker()
	})
	return nil
}

// SweepOnce settles every stuck session found right now.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	now := s.clock()
	cutoff := now.Add(-s.staleAfter)
	settled := 0

	for _, token := range s.tracker.Stale(cutoff) {
		if s.settler.State(token) == domain.Idle {
			// Silent but with nothing open: just drop the feed state.
			s.tracker.Forget(token)
			continue
		}
		logging.Warn(s.logger, "feed silent with open market, settling",
			logging.FieldSession, token)
		s.settler.SettleDisconnected(ctx, token)
		s.tracker.Forget(token)
		settled++
	}

	if settled > 0 {
		logging.Debug(s.logger, "sweep complete", slog.Int("settled", settled))
	}

	s.statusMu.Lock()
	s.status.LastSweep = now
	s.status.LastSettled = settled
	s.status.TotalSettled += settled
	s.statusMu.Unlock()
}

// Status returns a snapshot of the sweeper's recent activity.
func (s *Sweeper) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

func (s *Sweeper) stopTicker() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
}
