package resolver

import "errors"

// ErrServerNotFound reports that server discovery gave up: the account never
// appeared on a game server within the discovery schedule.
var ErrServerNotFound = errors.New("resolver: server not found for account")

// ErrTimeout reports that roster polling exhausted its schedule before the
// data became usable.
var ErrTimeout = errors.New("resolver: timed out waiting for roster")

// ErrUpstream reports a failure the retry schedules cannot fix.
var ErrUpstream = errors.New("resolver: upstream error")

// Internal pacing sentinels for the retry loops.
var (
	errRosterIncomplete = errors.New("resolver: roster missing account ids")
	errHeroesPending    = errors.New("resolver: heroes not picked yet")
)
