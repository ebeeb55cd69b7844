package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"dota-events-service/internal/announce"
	"dota-events-service/internal/clients"
	"dota-events-service/internal/domain"
	"dota-events-service/internal/kv"
	"dota-events-service/internal/logging"
	"dota-events-service/internal/metrics"
	"dota-events-service/internal/notify"
	"dota-events-service/internal/resolver"
	"dota-events-service/internal/session"
	"dota-events-service/internal/wager"
)

// Options tune settlement polling for disconnected matches.
type Options struct {
	ResultPollInterval time.Duration
	ResultPollAttempts uint64
}

func (o Options) withDefaults() Options {
	if o.ResultPollInterval <= 0 {
		o.ResultPollInterval = 2 * time.Second
	}
	if o.ResultPollAttempts == 0 {
		o.ResultPollAttempts = 8
	}
	return o
}

// Controller drives the per-session market state machine: it opens a market
// when a real match becomes visible, settles it when the game declares a
// winner, and falls back to the recorded match outcome when the feed dies
// mid-game. Tracked state lives in the KV store so a restart resumes where
// it left off.
type Controller struct {
	store    kv.Store
	platform wager.Platform
	results  clients.ResultSource
	resolver *resolver.Resolver
	announce *announce.Scheduler
	notifier notify.Notifier
	logger   *slog.Logger
	metrics  *metrics.Recorder
	opts     Options

	mu       sync.Mutex
	sessions map[string]*sessionState

	background sync.WaitGroup
}

type sessionState struct {
	mu       sync.Mutex
	state    domain.LifecycleState
	disabled bool
}

// New creates a controller.
func New(store kv.Store, platform wager.Platform, results clients.ResultSource, res *resolver.Resolver, sched *announce.Scheduler, notifier notify.Notifier, logger *slog.Logger, rec *metrics.Recorder, opts Options) *Controller {
	return &Controller{
		store:    store,
		platform: platform,
		results:  results,
		resolver: res,
		announce: sched,
		notifier: notifier,
		logger:   logger,
		metrics:  rec,
		opts:     opts.withDefaults(),
		sessions: make(map[string]*sessionState),
	}
}

// State reports the current machine position for a session.
func (c *Controller) State(sessionID string) domain.LifecycleState {
	st := c.sessionState(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state
}

// Tick advances the state machine for one snapshot. Safe to call from
// concurrent feed handlers; per-session work is serialized.
func (c *Controller) Tick(ctx context.Context, sess *session.Session, snap *domain.Snapshot) {
	if sess == nil || snap == nil {
		return
	}
	st := c.sessionState(sess.Token)
	st.mu.Lock()
	defer st.mu.Unlock()

	matchID := liveMatchID(snap)
	stored := c.storedMatchID(ctx, sess.Token)

	// Restart recovery: the KV store says a market is open but this process
	// has no memory of it. Adopt the match if it is still the one on screen,
	// otherwise settle the stale one from the recorded outcome.
	if st.state == domain.Idle && stored != "" {
		if stored == matchID {
			st.state = domain.MatchOpen
		} else {
			c.settleFromRecord(ctx, sess.Token, stored)
			stored = ""
		}
	}

	switch st.state {
	case domain.Idle:
		if !st.disabled && c.shouldOpen(snap, matchID) {
			c.open(ctx, st, sess, snap, matchID)
		}
	case domain.PendingMatch, domain.MatchOpen:
		if matchID != "" && stored != "" && matchID != stored {
			// The feed is showing a different match than the tracked one.
			// Never settle against the wrong match: drop the stale state
			// and let a later tick evaluate the new match from scratch.
			logging.Warn(logging.FromContext(ctx, c.logger), "stale match state, resetting",
				logging.FieldSession, sess.Token, logging.FieldMatchID, stored)
			c.reset(ctx, st, sess.Token, stored)
			return
		}
		if win := snap.WinTeam(); win != domain.TeamNone && st.state == domain.MatchOpen {
			c.closeNormal(ctx, st, sess.Token, stored, win)
		}
	case domain.Closing:
		// Settlement in flight; nothing to do until it finishes.
	}
}

// SettleDisconnected settles a session whose feed went away while a market
// was open. The sweeper calls this for sessions stuck mid-match.
func (c *Controller) SettleDisconnected(ctx context.Context, sessionID string) {
	st := c.sessionState(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	stored := c.storedMatchID(ctx, sessionID)
	if stored == "" {
		st.state = domain.Idle
		return
	}
	st.state = domain.Closing
	c.settleFromRecord(ctx, sessionID, stored)
	st.state = domain.Idle
}

// Wait blocks until background roster resolution has finished. Test hook.
func (c *Controller) Wait() {
	c.background.Wait()
}

func (c *Controller) shouldOpen(snap *domain.Snapshot, matchID string) bool {
	if matchID == "" || !snap.IsPlaying() {
		return false
	}
	if snap.WinTeam() != domain.TeamNone {
		return false
	}
	if snap.Hero == nil || snap.Hero.Name == "" {
		return false
	}
	team := snap.PlayerTeam()
	return team == domain.TeamRadiant || team == domain.TeamDire
}

func (c *Controller) open(ctx context.Context, st *sessionState, sess *session.Session, snap *domain.Snapshot, matchID string) {
	logger := logging.FromContext(ctx, c.logger)
	token := sess.Token
	team := snap.PlayerTeam()
	hero := snap.Hero.Name

	st.state = domain.PendingMatch
	if err := c.store.Set(ctx, kv.SessionMatchID(token), matchID); err != nil {
		logging.Error(logger, "failed to persist tracked match", err, logging.FieldSession, token)
		st.state = domain.Idle
		return
	}
	c.mustSet(ctx, kv.SessionTeam(token), string(team))
	c.mustSet(ctx, kv.SessionHero(token), hero)

	market := wager.Market{
		SessionID: token,
		MatchID:   matchID,
		Title:     marketTitle(sess.Name, hero),
	}
	marketID, err := c.platform.OpenMarket(ctx, market)
	if err != nil {
		if errors.Is(err, wager.ErrDisabled) {
			logging.Warn(logger, "wagering disabled for viewer, giving up",
				logging.FieldSession, token)
			st.disabled = true
		} else {
			logging.Error(logger, "market open failed", err,
				logging.FieldSession, token, logging.FieldMatchID, matchID)
		}
		c.clearSession(ctx, token, matchID)
		st.state = domain.Idle
		return
	}
	if marketID != "" {
		c.mustSet(ctx, kv.SessionMarketID(token), marketID)
	}

	st.state = domain.MatchOpen
	c.metrics.RecordMarket("open")
	c.publish(ctx, token, notify.EventMarketOpened, map[string]string{
		"match_id": matchID,
		"team":     string(team),
		"hero":     hero,
	})
	logging.Info(logger, "market opened",
		logging.FieldSession, token, logging.FieldMatchID, matchID, "team", team, "hero", hero)

	c.resolveAsync(ctx, sess, matchID)
}

// resolveAsync warms the roster record and rank cards without holding up the
// feed. Resolution can take minutes while the server becomes visible.
func (c *Controller) resolveAsync(ctx context.Context, sess *session.Session, matchID string) {
	if c.resolver == nil {
		return
	}
	accountID := accountIDFor(sess)
	detached := context.WithoutCancel(ctx)
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		logger := logging.FromContext(detached, c.logger)

		record, err := c.resolver.Resolve(detached, accountID, matchID)
		if err != nil {
			logging.Warn(logger, "roster resolution failed",
				logging.FieldSession, sess.Token, logging.FieldMatchID, matchID, "error", err)
			return
		}

		if slot := rosterSlot(record, accountID); slot >= 0 {
			c.mustSet(detached, kv.SessionHeroSlot(sess.Token), strconv.Itoa(slot))
		}
		cards := c.resolver.Cards(detached, record.AccountIDs(), false)
		c.publish(detached, sess.Token, notify.EventRanks, cards)
	}()
}

func (c *Controller) closeNormal(ctx context.Context, st *sessionState, token, matchID string, winner domain.Team) {
	logger := logging.FromContext(ctx, c.logger)
	st.state = domain.Closing

	storedTeam, err := c.store.Get(ctx, kv.SessionTeam(token))
	if err != nil {
		logging.Error(logger, "stored team missing at close, refunding", err, logging.FieldSession, token)
		c.refund(ctx, token)
		c.reset(ctx, st, token, matchID)
		return
	}

	won := domain.Team(storedTeam) == winner
	c.settle(ctx, token, won, winner)
	c.reset(ctx, st, token, matchID)
}

// settleFromRecord resolves a market whose live feed is gone by polling the
// recorded match outcome. An unscored match refunds; a poll that never
// succeeds leaves the market untouched and flags the session for manual
// review.
func (c *Controller) settleFromRecord(ctx context.Context, token, matchID string) {
	logger := logging.FromContext(ctx, c.logger)

	result, err := c.pollResult(ctx, matchID)
	switch {
	case err == nil && result.Winner != domain.TeamNone:
		storedTeam, teamErr := c.store.Get(ctx, kv.SessionTeam(token))
		if teamErr != nil {
			logging.Error(logger, "stored team missing for recorded settlement, refunding", teamErr,
				logging.FieldSession, token, logging.FieldMatchID, matchID)
			c.refund(ctx, token)
		} else {
			c.settle(ctx, token, domain.Team(storedTeam) == result.Winner, result.Winner)
		}
	case errors.Is(err, clients.ErrNoResult) || (err == nil && result.Winner == domain.TeamNone):
		logging.Warn(logger, "match never scored, refunding",
			logging.FieldSession, token, logging.FieldMatchID, matchID)
		c.refund(ctx, token)
	default:
		// The outcome is unknown, not absent. Touching the market here could
		// pay out the wrong way; leave it open for a human and reset.
		logging.Error(logger, "result poll exhausted, manual resolution required", err,
			logging.FieldSession, token, logging.FieldMatchID, matchID)
		c.publish(ctx, token, notify.EventManualAction, map[string]string{
			"match_id": matchID,
			"reason":   "settlement could not be verified",
		})
	}

	c.clearSession(ctx, token, matchID)
	c.cancelAnnouncements(token)
}

func (c *Controller) pollResult(ctx context.Context, matchID string) (*domain.MatchResult, error) {
	if c.results == nil {
		return nil, clients.ErrNoResult
	}
	var result *domain.MatchResult
	op := func() error {
		res, err := c.results.MatchResult(ctx, matchID)
		if err != nil {
			return err
		}
		result = res
		return nil
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.ResultPollInterval
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, c.opts.ResultPollAttempts-1), ctx))
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Controller) settle(ctx context.Context, token string, won bool, winner domain.Team) {
	logger := logging.FromContext(ctx, c.logger)
	err := c.platform.SettleMarket(ctx, token, won)
	if err != nil && !errors.Is(err, wager.ErrNoOpenMarket) {
		logging.Error(logger, "market settle failed", err, logging.FieldSession, token)
		return
	}
	c.metrics.RecordMarket("settled")
	c.publish(ctx, token, notify.EventMarketClosed, map[string]any{
		"won":    won,
		"winner": string(winner),
	})
	logging.Info(logger, "market settled", logging.FieldSession, token, "won", won, "winner", winner)
}

func (c *Controller) refund(ctx context.Context, token string) {
	logger := logging.FromContext(ctx, c.logger)
	err := c.platform.RefundMarket(ctx, token)
	if err != nil && !errors.Is(err, wager.ErrNoOpenMarket) {
		logging.Error(logger, "market refund failed", err, logging.FieldSession, token)
		return
	}
	c.metrics.RecordMarket("refunded")
	c.publish(ctx, token, notify.EventMarketClosed, map[string]any{
		"won":      false,
		"refunded": true,
	})
}

func (c *Controller) reset(ctx context.Context, st *sessionState, token, matchID string) {
	c.clearSession(ctx, token, matchID)
	c.cancelAnnouncements(token)
	st.state = domain.Idle
}

func (c *Controller) clearSession(ctx context.Context, token, matchID string) {
	logger := logging.FromContext(ctx, c.logger)
	keys := append(kv.SessionKeys(token), kv.MatchKeys(matchID)...)
	if err := c.store.Delete(ctx, keys...); err != nil {
		logging.Error(logger, "session state clear failed", err, logging.FieldSession, token)
	}
}

func (c *Controller) cancelAnnouncements(token string) {
	if c.announce != nil {
		c.announce.CancelPrefix(token + ":")
	}
}

func (c *Controller) storedMatchID(ctx context.Context, token string) string {
	stored, err := c.store.Get(ctx, kv.SessionMatchID(token))
	if err != nil {
		return ""
	}
	return stored
}

func (c *Controller) sessionState(token string) *sessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.sessions[token]
	if !ok {
		st = &sessionState{}
		c.sessions[token] = st
	}
	return st
}

func (c *Controller) mustSet(ctx context.Context, key, value string) {
	if err := c.store.Set(ctx, key, value); err != nil {
		logging.Warn(logging.FromContext(ctx, c.logger), "state write failed", "key", key, "error", err)
	}
}

func (c *Controller) publish(ctx context.Context, token, event string, payload any) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Publish(ctx, token, event, payload); err != nil {
		logging.Warn(logging.FromContext(ctx, c.logger), "notify failed",
			logging.FieldSession, token, logging.FieldEvent, event, "error", err)
	}
}

func liveMatchID(snap *domain.Snapshot) string {
	id := snap.MatchID()
	if id == "0" {
		return ""
	}
	return id
}

func accountIDFor(sess *session.Session) int64 {
	return sess.AccountID()
}

func rosterSlot(record *domain.MatchRecord, accountID int64) int {
	if accountID == 0 {
		return -1
	}
	for i, id := range record.AccountIDs() {
		if id == accountID {
			return i
		}
	}
	return -1
}

func marketTitle(name, hero string) string {
	who := name
	if who == "" {
		who = "the streamer"
	}
	pretty := strings.TrimPrefix(hero, "npc_dota_hero_")
	pretty = strings.ReplaceAll(pretty, "_", " ")
	return "Will " + who + " win with " + pretty + "?"
}
