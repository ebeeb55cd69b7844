package session

import "context"

// Entry seeds a static directory with one token's identity.
type Entry struct {
	Token     string
	Name      string
	AccountID int64
}

// StaticDirectory serves a fixed token set. Useful for tests and for
// single-viewer deployments configured from the environment.
type StaticDirectory struct {
	byToken map[string]Entry
}

// NewStaticDirectory builds a directory from the given entries.
func NewStaticDirectory(entries ...Entry) *StaticDirectory {
	byToken := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byToken[e.Token] = e
	}
	return &StaticDirectory{byToken: byToken}
}

func (d *StaticDirectory) Lookup(_ context.Context, token string) (*Session, error) {
	e, ok := d.byToken[token]
	if !ok {
		return nil, ErrUnknownToken
	}
	return New(e.Token, e.Name, e.AccountID), nil
}
