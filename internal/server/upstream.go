package server

import (
	"log/slog"

	"dota-events-service/internal/clients"
	"dota-events-service/internal/clients/fixture"
	"dota-events-service/internal/clients/steam"
	"dota-events-service/internal/config"
	"dota-events-service/internal/logging"
	"dota-events-service/internal/metrics"
)

// buildUpstream selects the statistics backend and decorates it with call
// metrics. Unknown provider names fall back to the fixture so a typo in the
// environment does not take real markets hostage.
func buildUpstream(cfg config.Config, logger *slog.Logger, rec *metrics.Recorder) clients.Full {
	var base clients.Full
	switch cfg.StatsProvider {
	case "steam":
		base = steam.NewClient(steam.Config{
			BaseURL: cfg.Steam.BaseURL,
			APIKey:  cfg.Steam.APIKey,
		})
	case "fixture":
		base = fixture.New()
	default:
		logging.Warn(logger, "unknown stats provider, using fixture", "provider", cfg.StatsProvider)
		base = fixture.New()
	}
	return clients.NewInstrumented(base, cfg.StatsProvider, logger, rec)
}
