package clients

import (
	"context"
	"log/slog"
	"time"

	"dota-events-service/internal/domain"
	"dota-events-service/internal/logging"
	"dota-events-service/internal/metrics"
)

// instrumented wraps a Full upstream with per-call metrics and debug logs.
type instrumented struct {
	next    Full
	name    string
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewInstrumented decorates an upstream with call metrics under the given name.
func NewInstrumented(next Full, name string, logger *slog.Logger, rec *metrics.Recorder) Full {
	return &instrumented{next: next, name: name, logger: logger, metrics: rec}
}

func (c *instrumented) ServerForAccount(ctx context.Context, accountID int64) (string, error) {
	start := time.Now()
	id, err := c.next.ServerForAccount(ctx, accountID)
	c.observe(ctx, "server_for_account", start, err)
	return id, err
}

func (c *instrumented) RealtimeStats(ctx context.Context, serverID string) (*domain.MatchRecord, error) {
	start := time.Now()
	record, err := c.next.RealtimeStats(ctx, serverID)
	c.observe(ctx, "realtime_stats", start, err)
	return record, err
}

func (c *instrumented) MatchResult(ctx context.Context, matchID string) (*domain.MatchResult, error) {
	start := time.Now()
	result, err := c.next.MatchResult(ctx, matchID)
	c.observe(ctx, "match_result", start, err)
	return result, err
}

func (c *instrumented) RankCard(ctx context.Context, accountID int64) (*domain.RankCard, error) {
	start := time.Now()
	card, err := c.next.RankCard(ctx, accountID)
	c.observe(ctx, "rank_card", start, err)
	return card, err
}

func (c *instrumented) observe(ctx context.Context, op string, start time.Time, err error) {
	elapsed := time.Since(start)
	c.metrics.RecordUpstreamAttempt(c.name, elapsed, err)
	logger := logging.FromContext(ctx, c.logger)
	if logger != nil && err != nil {
		logger.Debug("upstream call failed",
			slog.String("upstream", c.name),
			slog.String("op", op),
			slog.Int64(logging.FieldDurationMS, elapsed.Milliseconds()),
			slog.Any("error", err),
		)
	}
}
