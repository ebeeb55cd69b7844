package config

import "strings"

// SessionEntry is one statically configured viewer token.
type SessionEntry struct {
	Token     string
	Name      string
	AccountID int64
}

// loadSessions parses GSI_TOKENS, a comma separated list of
// token=name entries, e.g. "abc123=streamer_one,def456=streamer_two".
func loadSessions() []SessionEntry {
	raw := envOrDefault(envSessionTokens, "")
	if raw == "" {
		return nil
	}
	var out []SessionEntry
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		entry := SessionEntry{Token: part}
		if eq := strings.IndexByte(part, '='); eq >= 0 {
			entry.Token = part[:eq]
			entry.Name = part[eq+1:]
		}
		if entry.Token != "" {
			out = append(out, entry)
		}
	}
	return out
}
