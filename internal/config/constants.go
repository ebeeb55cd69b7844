package config

import "time"

const (
	envPort          = "PORT"
	envSweepInterval = "SWEEP_INTERVAL"
	envStatsProvider = "STATS_PROVIDER"
	envMetricsPort   = "METRICS_PORT"
	envMetricsOn     = "METRICS_ENABLED"
	envOtelEndpoint  = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService   = "OTEL_SERVICE_NAME"
	envOtelInsecure  = "OTEL_EXPORTER_OTLP_INSECURE"
	envRedisAddr     = "REDIS_ADDR"
	envRedisDB       = "REDIS_DB"
	envNatsURL       = "NATS_URL"
	envNatsSubject   = "NATS_SUBJECT_PREFIX"
	envWagerBaseURL  = "WAGER_BASE_URL"
	envWagerToken    = "WAGER_AUTH_TOKEN"
	envSessionTokens = "GSI_TOKENS"
	envStaleAfter    = "STALE_AFTER"

	defaultPort = "5000"
	// How often the sweeper re-checks sessions stuck mid-settlement.
	defaultSweepInterval = 30 * Duration(time.Second)
	defaultStatsProvider = "fixture"
	defaultMetricsPort   = "9090"
	defaultRedisAddr     = "localhost:6379"
	defaultNatsSubject   = "overlay"
	// A feed that has been silent this long mid-match is treated as
	// disconnected and settled from the recorded outcome.
	defaultStaleAfter = 3 * Duration(time.Minute)
)
