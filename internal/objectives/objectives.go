package objectives

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dota-events-service/internal/domain"
	"dota-events-service/internal/kv"
	"dota-events-service/internal/logging"
	"dota-events-service/internal/notify"
	"dota-events-service/internal/timeutil"
)

const (
	roshanRespawnMin = 8 * time.Minute
	roshanRespawnMax = 11 * time.Minute
	aegisLifetime    = 5 * time.Minute
)

// Tracker maintains the Roshan respawn window and aegis expiry per session.
// Timers are persisted as absolute instants so a restart mid-window replays
// the correct remaining time instead of restarting the countdown.
type Tracker struct {
	store    kv.Store
	notifier notify.Notifier
	logger   *slog.Logger
	clock    timeutil.Clock
}

// NewTracker creates a tracker. A nil clock means wall time.
func NewTracker(store kv.Store, notifier notify.Notifier, logger *slog.Logger, clock timeutil.Clock) *Tracker {
	return &Tracker{
		store:    store,
		notifier: notifier,
		logger:   logger,
		clock:    timeutil.Resolve(clock),
	}
}

// RoshanKilled records a death and announces the respawn window. elapsed is
// how many game seconds ago the kill actually happened: a feed that
// reconnects mid-match re-reports old events, so the window shrinks by the
// time already served and a kill already on record does not bump the count
// again.
func (t *Tracker) RoshanKilled(ctx context.Context, sessionID string, clockTime, elapsed int) {
	now := t.clock()
	if elapsed < 0 {
		elapsed = 0
	}
	maxIn := roshanRespawnMax - time.Duration(elapsed)*time.Second
	if maxIn <= 0 {
		// The whole window already passed before we heard about the kill.
		t.delete(ctx, kv.SessionRoshan(sessionID))
		return
	}
	minIn := roshanRespawnMin - time.Duration(elapsed)*time.Second
	if minIn < 0 {
		minIn = 0
	}
	killClock := clockTime - elapsed

	var prev domain.RoshanTimer
	count := 1
	if err := t.store.GetJSON(ctx, kv.SessionRoshan(sessionID), &prev); err == nil {
		if prev.KilledClock == killClock {
			count = prev.Count
		} else {
			count = prev.Count + 1
		}
	}

	timer := domain.RoshanTimer{
		MinSeconds:  int(minIn / time.Second),
		MaxSeconds:  int((maxIn - minIn) / time.Second),
		MinClock:    timeutil.FormatClock(killClock + int(roshanRespawnMin/time.Second)),
		MaxClock:    timeutil.FormatClock(killClock + int(roshanRespawnMax/time.Second)),
		MinAt:       now.Add(minIn),
		MaxAt:       now.Add(maxIn),
		KilledClock: killClock,
		Count:       count,
	}

	t.putJSON(ctx, kv.SessionRoshan(sessionID), timer)
	t.publish(ctx, sessionID, notify.EventRoshanTimer, timer)
}

// AegisPickedUp records who holds the aegis and when it expires. elapsed
// shrinks the expiry for pickups re-reported after a reconnect.
func (t *Tracker) AegisPickedUp(ctx context.Context, sessionID string, playerID, clockTime, elapsed int) {
	now := t.clock()
	if elapsed < 0 {
		elapsed = 0
	}
	expireIn := aegisLifetime - time.Duration(elapsed)*time.Second
	if expireIn <= 0 {
		t.delete(ctx, kv.SessionAegis(sessionID))
		return
	}
	pickClock := clockTime - elapsed
	timer := domain.AegisTimer{
		PlayerID:      playerID,
		ExpireSeconds: int(expireIn / time.Second),
		ExpireClock:   timeutil.FormatClock(pickClock + int(aegisLifetime/time.Second)),
		ExpireAt:      now.Add(expireIn),
	}
	t.putJSON(ctx, kv.SessionAegis(sessionID), timer)
	t.publish(ctx, sessionID, notify.EventAegisTimer, timer)
}

// AegisDenied clears the held aegis and announces the deny.
func (t *Tracker) AegisDenied(ctx context.Context, sessionID string, playerID int) {
	t.delete(ctx, kv.SessionAegis(sessionID))
	t.publish(ctx, sessionID, notify.EventAegisDenied, map[string]int{"playerId": playerID})
}

// Replay re-announces any timers still live for the session. Called when a
// feed reconnects mid-match so the overlay picks the countdowns back up.
// Timers whose whole window has passed are dropped instead.
func (t *Tracker) Replay(ctx context.Context, sessionID string) {
	now := t.clock()

	var roshan domain.RoshanTimer
	if err := t.store.GetJSON(ctx, kv.SessionRoshan(sessionID), &roshan); err == nil {
		if roshan.MaxAt.After(now) {
			t.publish(ctx, sessionID, notify.EventRoshanTimer, roshan.Remaining(now))
		} else {
			t.delete(ctx, kv.SessionRoshan(sessionID))
		}
	} else if !errors.Is(err, kv.ErrNotFound) {
		logging.Warn(t.logger, "roshan timer read failed", logging.FieldSession, sessionID, "error", err)
	}

	var aegis domain.AegisTimer
	if err := t.store.GetJSON(ctx, kv.SessionAegis(sessionID), &aegis); err == nil {
		if aegis.ExpireAt.After(now) {
			t.publish(ctx, sessionID, notify.EventAegisTimer, aegis.Remaining(now))
		} else {
			t.delete(ctx, kv.SessionAegis(sessionID))
		}
	} else if !errors.Is(err, kv.ErrNotFound) {
		logging.Warn(t.logger, "aegis timer read failed", logging.FieldSession, sessionID, "error", err)
	}
}

// Clear drops both timers without announcing anything.
func (t *Tracker) Clear(ctx context.Context, sessionID string) {
	t.delete(ctx, kv.SessionRoshan(sessionID), kv.SessionAegis(sessionID))
}

func (t *Tracker) putJSON(ctx context.Context, key string, value any) {
	if err := t.store.SetJSON(ctx, key, value); err != nil {
		logging.Warn(t.logger, "timer write failed", "key", key, "error", err)
	}
}

func (t *Tracker) delete(ctx context.Context, keys ...string) {
	if err := t.store.Delete(ctx, keys...); err != nil {
		logging.Warn(t.logger, "timer delete failed", "error", err)
	}
}

func (t *Tracker) publish(ctx context.Context, sessionID, event string, payload any) {
	if t.notifier == nil {
		return
	}
	if err := t.notifier.Publish(ctx, sessionID, event, payload); err != nil {
		logging.Warn(t.logger, "timer notify failed", logging.FieldSession, sessionID, logging.FieldEvent, event, "error", err)
	}
}
