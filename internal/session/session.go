package session

import "sync"

// Session identifies the viewer a feed token belongs to. Identity fields can
// arrive late, read out of the first payload that carries them, so access
// goes through accessors that hold the session lock.
type Session struct {
	Token string
	Name  string

	mu        sync.Mutex
	accountID int64
	steamID   string
}

// New builds a session with whatever identity is known up front.
func New(token, name string, accountID int64) *Session {
	return &Session{Token: token, Name: name, accountID: accountID}
}

// AccountID returns the viewer's Dota account id, zero when unknown.
func (s *Session) AccountID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountID
}

// SteamID returns the viewer's 64-bit steam id, empty when unknown.
func (s *Session) SteamID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steamID
}

// AdoptIdentity fills in identity fields that are still unset. Values already
// learned win over later reports.
func (s *Session) AdoptIdentity(accountID int64, steamID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountID == 0 && accountID != 0 {
		s.accountID = accountID
	}
	if s.steamID == "" && steamID != "" {
		s.steamID = steamID
	}
}
