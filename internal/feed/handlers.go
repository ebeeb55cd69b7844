package feed

import (
	"context"
	"log/slog"
	"time"

	"dota-events-service/internal/announce"
	"dota-events-service/internal/dispatch"
	"dota-events-service/internal/domain"
	"dota-events-service/internal/logging"
	"dota-events-service/internal/notify"
	"dota-events-service/internal/objectives"
)

const (
	// A streak announcement waits out one more potential death before it
	// fires; dying inside the window cancels it.
	killStreakDelay    = 15 * time.Second
	minAnnouncedStreak = 3
	streakKeySuffix    = ":streak"
)

// HandlerDeps are the collaborators the standard handlers drive.
type HandlerDeps struct {
	Objectives *objectives.Tracker
	Announcer  *announce.Scheduler
	Notifier   notify.Notifier
	Logger     *slog.Logger

	// StreakDelay overrides the announcement hold-back; zero means the default.
	StreakDelay time.Duration
}

// RegisterHandlers wires the standard in-game reactions onto the bus:
// objective timers, timer replay on reconnect, and kill-streak callouts.
func (p *Pipeline) RegisterHandlers(deps HandlerDeps) {
	if deps.StreakDelay <= 0 {
		deps.StreakDelay = killStreakDelay
	}
	p.bus.Register("player:activity", func(ctx context.Context, ev dispatch.Event) error {
		if activity, ok := ev.Value.(string); ok && activity == "playing" {
			deps.Objectives.Replay(ctx, ev.Session)
		}
		return nil
	})

	p.bus.Register("event:"+domain.EventRoshanKilled, func(ctx context.Context, ev dispatch.Event) error {
		game, ok := ev.Value.(domain.GameEvent)
		if !ok {
			return nil
		}
		clockTime, gameTime := p.gameClock(ev.Session)
		deps.Objectives.RoshanKilled(ctx, ev.Session, clockTime, eventElapsed(gameTime, game.GameTime))
		return nil
	})

	p.bus.Register("event:"+domain.EventAegisPickedUp, func(ctx context.Context, ev dispatch.Event) error {
		game, ok := ev.Value.(domain.GameEvent)
		if !ok {
			return nil
		}
		clockTime, gameTime := p.gameClock(ev.Session)
		deps.Objectives.AegisPickedUp(ctx, ev.Session, game.PlayerID, clockTime, eventElapsed(gameTime, game.GameTime))
		return nil
	})

	p.bus.Register("event:"+domain.EventAegisDenied, func(ctx context.Context, ev dispatch.Event) error {
		game, ok := ev.Value.(domain.GameEvent)
		if !ok {
			return nil
		}
		deps.Objectives.AegisDenied(ctx, ev.Session, game.PlayerID)
		return nil
	})

	p.bus.Register(domain.EventPhaseChange, func(ctx context.Context, ev dispatch.Event) error {
		change, ok := ev.Value.(domain.PhaseChange)
		if !ok {
			return nil
		}
		return deps.Notifier.Publish(ctx, ev.Session, notify.EventVisibility, map[string]string{
			"from": change.From,
			"to":   change.To,
		})
	})

	p.bus.Register(domain.PathPlayerStreak, func(ctx context.Context, ev dispatch.Event) error {
		streak, ok := ev.Value.(int)
		if !ok {
			return nil
		}
		key := ev.Session + streakKeySuffix
		switch {
		case streak >= minAnnouncedStreak:
			token := ev.Session
			detached := context.WithoutCancel(ctx)
			deps.Announcer.Schedule(key, deps.StreakDelay, func() {
				if err := deps.Notifier.Publish(detached, token, notify.EventKillStreak, map[string]int{"count": streak}); err != nil {
					logging.Warn(deps.Logger, "killstreak notify failed", logging.FieldSession, token, "error", err)
				}
			})
		case streak == 0:
			deps.Announcer.Cancel(key)
		}
		return nil
	})
}

func (p *Pipeline) gameClock(token string) (clockTime, gameTime int) {
	snap := p.Snapshot(token)
	if snap == nil || snap.Map == nil {
		return 0, 0
	}
	return snap.Map.ClockTime, snap.Map.GameTime
}

// eventElapsed is how stale a reported event is. Discrete events carry the
// game time they fired at, which trails the map clock when a reconnecting
// feed re-reports them.
func eventElapsed(mapGameTime, eventGameTime int) int {
	if eventGameTime <= 0 || mapGameTime <= eventGameTime {
		return 0
	}
	return mapGameTime - eventGameTime
}
