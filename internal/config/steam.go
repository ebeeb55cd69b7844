package config

const (
	envSteamBaseURL = "STEAM_API_BASE_URL"
	envSteamAPIKey  = "STEAM_WEB_API_KEY"

	defaultSteamBaseURL = "https://api.steampowered.com"
)

// SteamConfig controls how we talk to the Steam Web API.
type SteamConfig struct {
	BaseURL string
	APIKey  string
}

func loadSteam() SteamConfig {
	return SteamConfig{
		BaseURL: envOrDefault(envSteamBaseURL, defaultSteamBaseURL),
		APIKey:  envOrDefault(envSteamAPIKey, ""),
	}
}
