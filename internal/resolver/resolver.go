package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"

	"dota-events-service/internal/clients"
	"dota-events-service/internal/domain"
	"dota-events-service/internal/kv"
	"dota-events-service/internal/logging"
)

// Options tune the retry schedules. Zero values fall back to the defaults,
// which reflect how long real matches take to become visible upstream: the
// server often appears minutes after the strategy phase, account ids a few
// seconds after that, and hero picks only once the draft ends.
type Options struct {
	DiscoveryInterval time.Duration
	DiscoveryMax      time.Duration
	DiscoveryAttempts uint64

	RosterInterval time.Duration
	RosterAttempts uint64

	HeroInterval time.Duration
	HeroAttempts uint64
}

func (o Options) withDefaults() Options {
	if o.DiscoveryInterval <= 0 {
		o.DiscoveryInterval = time.Second
	}
	if o.DiscoveryMax <= 0 {
		o.DiscoveryMax = time.Minute
	}
	if o.DiscoveryAttempts == 0 {
		o.DiscoveryAttempts = 35
	}
	if o.RosterInterval <= 0 {
		o.RosterInterval = time.Second
	}
	if o.RosterAttempts == 0 {
		o.RosterAttempts = 8
	}
	if o.HeroInterval <= 0 {
		o.HeroInterval = 2 * time.Second
	}
	if o.HeroAttempts == 0 {
		o.HeroAttempts = 10
	}
	return o
}

// Resolver turns "this account started a match" into a full roster record.
// It discovers the game server, polls realtime stats until the roster is
// usable, and caches what it learns so restarts and concurrent viewers of
// the same match do not repeat the work.
type Resolver struct {
	upstream clients.Upstream
	ranks    clients.RankSource
	store    kv.Store
	logger   *slog.Logger
	opts     Options

	group singleflight.Group
}

// New creates a resolver.
func New(upstream clients.Upstream, ranks clients.RankSource, store kv.Store, logger *slog.Logger, opts Options) *Resolver {
	return &Resolver{
		upstream: upstream,
		ranks:    ranks,
		store:    store,
		logger:   logger,
		opts:     opts.withDefaults(),
	}
}

// Resolve returns the roster record for the match the account is playing.
// Calls for the same match id are collapsed into one upstream sequence. A
// record with account ids but without hero picks is still returned (and
// cached) when the hero polling schedule runs out; heroes fill in on a
// later call.
func (r *Resolver) Resolve(ctx context.Context, accountID int64, matchID string) (*domain.MatchRecord, error) {
	key := matchID
	if key == "" {
		key = "account:" + strconv.FormatInt(accountID, 10)
	}

	if cached := r.cachedRecord(ctx, matchID); cached.Complete() {
		return cached, nil
	}

	val, err, _ := r.group.Do(key, func() (any, error) {
		return r.resolve(ctx, accountID, matchID)
	})
	if err != nil {
		return nil, err
	}
	return val.(*domain.MatchRecord), nil
}

func (r *Resolver) resolve(ctx context.Context, accountID int64, matchID string) (*domain.MatchRecord, error) {
	logger := logging.FromContext(ctx, r.logger)

	serverID, err := r.discoverServer(ctx, accountID, matchID)
	if err != nil {
		return nil, err
	}

	record, err := r.pollRoster(ctx, serverID)
	if err != nil {
		return nil, err
	}
	r.cacheRecord(ctx, matchID, record)

	if record.Complete() {
		return record, nil
	}

	if full, err := r.pollHeroes(ctx, serverID); err == nil {
		record = full
		r.cacheRecord(ctx, matchID, record)
	} else if !errors.Is(err, context.Canceled) {
		logging.Warn(logger, "hero picks never appeared, keeping partial roster",
			logging.FieldMatchID, matchID)
	}
	return record, nil
}

func (r *Resolver) discoverServer(ctx context.Context, accountID int64, matchID string) (string, error) {
	if cached, err := r.store.Get(ctx, kv.MatchServerID(matchID)); matchID != "" && err == nil && cached != "" {
		return cached, nil
	}

	logger := logging.FromContext(ctx, r.logger)
	attempt := 0
	var serverID string
	op := func() error {
		attempt++
		id, err := r.upstream.ServerForAccount(ctx, accountID)
		if err != nil {
			return retryable(err)
		}
		serverID = id
		return nil
	}
	notify := func(err error, next time.Duration) {
		if logger != nil {
			logger.Debug("server discovery retry",
				slog.Int(logging.FieldAttempt, attempt),
				slog.Duration("next", next),
				slog.Any("error", err),
			)
		}
	}
	err := backoff.RetryNotify(op, r.policy(ctx, r.opts.DiscoveryInterval, r.opts.DiscoveryMax, r.opts.DiscoveryAttempts), notify)
	if err != nil {
		if errors.Is(err, clients.ErrNoServer) {
			return "", ErrServerNotFound
		}
		if errors.Is(err, clients.ErrRejected) {
			return "", fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		return "", fmt.Errorf("discover server: %w", err)
	}

	if matchID != "" {
		if err := r.store.Set(ctx, kv.MatchServerID(matchID), serverID); err != nil {
			logging.Warn(logger, "failed to cache server handle", "error", err)
		}
	}
	return serverID, nil
}

func (r *Resolver) pollRoster(ctx context.Context, serverID string) (*domain.MatchRecord, error) {
	var record *domain.MatchRecord
	op := func() error {
		rec, err := r.upstream.RealtimeStats(ctx, serverID)
		if err != nil {
			return retryable(err)
		}
		if !rec.HasAccountIDs() {
			return errRosterIncomplete
		}
		record = rec
		return nil
	}
	err := backoff.Retry(op, r.policy(ctx, r.opts.RosterInterval, 0, r.opts.RosterAttempts))
	if err != nil {
		if errors.Is(err, errRosterIncomplete) {
			return nil, ErrTimeout
		}
		if errors.Is(err, clients.ErrRejected) {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		return nil, fmt.Errorf("poll roster: %w", err)
	}
	return record, nil
}

func (r *Resolver) pollHeroes(ctx context.Context, serverID string) (*domain.MatchRecord, error) {
	var record *domain.MatchRecord
	op := func() error {
		rec, err := r.upstream.RealtimeStats(ctx, serverID)
		if err != nil {
			return retryable(err)
		}
		if !rec.Complete() {
			return errHeroesPending
		}
		record = rec
		return nil
	}
	if err := backoff.Retry(op, r.policy(ctx, r.opts.HeroInterval, 0, r.opts.HeroAttempts)); err != nil {
		return nil, err
	}
	return record, nil
}

// retryable marks rejected upstream responses permanent so the backoff loop
// stops immediately instead of burning its schedule.
func retryable(err error) error {
	if errors.Is(err, clients.ErrRejected) {
		return backoff.Permanent(err)
	}
	return err
}

func (r *Resolver) policy(ctx context.Context, initial, max time.Duration, attempts uint64) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.RandomizationFactor = 0
	b.Multiplier = 2
	if max > 0 {
		b.MaxInterval = max
	}
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, attempts-1), ctx)
}

func (r *Resolver) cachedRecord(ctx context.Context, matchID string) *domain.MatchRecord {
	if matchID == "" {
		return nil
	}
	var record domain.MatchRecord
	if err := r.store.GetJSON(ctx, kv.MatchRecordKey(matchID), &record); err != nil {
		return nil
	}
	return &record
}

func (r *Resolver) cacheRecord(ctx context.Context, matchID string, record *domain.MatchRecord) {
	if matchID == "" {
		matchID = record.MatchID
	}
	if matchID == "" {
		return
	}
	logger := logging.FromContext(ctx, r.logger)
	if err := r.store.SetJSON(ctx, kv.MatchRecordKey(matchID), record); err != nil {
		logging.Warn(logger, "failed to cache roster record", logging.FieldMatchID, matchID, "error", err)
	}
	if err := r.store.Set(ctx, kv.MatchLobbyType(matchID), strconv.Itoa(record.LobbyType)); err != nil {
		logging.Warn(logger, "failed to cache lobby type", logging.FieldMatchID, matchID, "error", err)
	}
}
