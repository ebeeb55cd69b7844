package config

// Config holds runtime configuration for the server.
type Config struct {
	Port          string
	SweepInterval Duration
	StatsProvider string
	StaleAfter    Duration
	Sessions      []SessionEntry
	Steam         SteamConfig
	Wager         WagerConfig
	Redis         RedisConfig
	Nats          NatsConfig
	Metrics       MetricsConfig
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Port:          envOrDefault(envPort, defaultPort),
		SweepInterval: durationEnvOrDefault(envSweepInterval, defaultSweepInterval),
		StatsProvider: envOrDefault(envStatsProvider, defaultStatsProvider),
		StaleAfter:    durationEnvOrDefault(envStaleAfter, defaultStaleAfter),
		Sessions:      loadSessions(),
		Steam:         loadSteam(),
		Wager:         loadWager(),
		Redis:         loadRedis(),
		Nats:          loadNats(),
		Metrics:       loadMetrics(),
	}
}
