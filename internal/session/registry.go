package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"dota-events-service/internal/logging"
)

// ErrUnknownToken reports a token the directory does not recognize.
var ErrUnknownToken = errors.New("session: unknown token")

// UserDirectory resolves a feed token to the viewer who owns it.
type UserDirectory interface {
	Lookup(ctx context.Context, token string) (*Session, error)
}

// Registry caches token lookups. A recognized token is cached for the life
// of the process; an unrecognized one lands in an invalid set so that a
// client posting with a stale token is rejected without hitting the
// directory on every snapshot. Concurrent lookups for the same token are
// collapsed into one directory call.
type Registry struct {
	dir    UserDirectory
	logger *slog.Logger

	group singleflight.Group

	mu       sync.RWMutex
	sessions map[string]*Session
	invalid  map[string]struct{}
}

// NewRegistry creates a registry backed by the given directory.
func NewRegistry(dir UserDirectory, logger *slog.Logger) *Registry {
	return &Registry{
		dir:      dir,
		logger:   logger,
		sessions: make(map[string]*Session),
		invalid:  make(map[string]struct{}),
	}
}

// Lookup resolves a token to its session. Tokens previously rejected by the
// directory fail fast with ErrUnknownToken until Invalidate clears them.
func (r *Registry) Lookup(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrUnknownToken
	}

	r.mu.RLock()
	if sess, ok := r.sessions[token]; ok {
		r.mu.RUnlock()
		return sess, nil
	}
	if _, ok := r.invalid[token]; ok {
		r.mu.RUnlock()
		return nil, ErrUnknownToken
	}
	r.mu.RUnlock()

	val, err, _ := r.group.Do(token, func() (any, error) {
		sess, err := r.dir.Lookup(ctx, token)
		if errors.Is(err, ErrUnknownToken) {
			r.mu.Lock()
			r.invalid[token] = struct{}{}
			r.mu.Unlock()
			logging.Warn(r.logger, "rejecting unknown feed token")
			return nil, ErrUnknownToken
		}
		if err != nil {
			// Transient failure: do not poison the invalid set.
			return nil, err
		}
		r.mu.Lock()
		r.sessions[token] = sess
		r.mu.Unlock()
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*Session), nil
}

// Invalidate drops a token from both caches, forcing the next lookup to
// consult the directory again. Used when a viewer rotates their token.
func (r *Registry) Invalidate(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	delete(r.invalid, token)
}

// Known reports whether a token currently resolves without a directory call.
func (r *Registry) Known(token string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[token]
	return ok
}
