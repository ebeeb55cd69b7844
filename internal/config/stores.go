package config

// RedisConfig points at the ephemeral state store.
type RedisConfig struct {
	Addr string
	DB   int
}

// NatsConfig controls the overlay notification publisher. An empty URL
// disables NATS and notifications are logged only.
type NatsConfig struct {
	URL           string
	SubjectPrefix string
}

func loadRedis() RedisConfig {
	return RedisConfig{
		Addr: envOrDefault(envRedisAddr, defaultRedisAddr),
		DB:   intEnvOrDefaultAllowZero(envRedisDB, 0),
	}
}

func loadNats() NatsConfig {
	return NatsConfig{
		URL:           envOrDefault(envNatsURL, ""),
		SubjectPrefix: envOrDefault(envNatsSubject, defaultNatsSubject),
	}
}
