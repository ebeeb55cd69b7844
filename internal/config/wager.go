package config

// WagerConfig points at the wagering platform backend. An empty base URL
// keeps markets in memory, which is only useful for local runs.
type WagerConfig struct {
	BaseURL   string
	AuthToken string
}

func loadWager() WagerConfig {
	return WagerConfig{
		BaseURL:   envOrDefault(envWagerBaseURL, ""),
		AuthToken: envOrDefault(envWagerToken, ""),
	}
}
