package domain

import "time"

// RoshanTimer is the persisted contested-objective respawn window. Absolute
// instants are stored rather than elapsed seconds so a read after arbitrary
// delay (or a process restart) still reports the right window.
type RoshanTimer struct {
	MinSeconds  int       `json:"minS"`
	MaxSeconds  int       `json:"maxS"`
	MinClock    string    `json:"minTime"`
	MaxClock    string    `json:"maxTime"`
	MinAt       time.Time `json:"minDate"`
	MaxAt       time.Time `json:"maxDate"`
	KilledClock int       `json:"killedClock"`
	Count       int       `json:"count"`
}

// Remaining recomputes the window seconds against now, floored at zero.
// MaxSeconds is reported relative to the start of the window, matching the
// overlay's countdown semantics.
func (t RoshanTimer) Remaining(now time.Time) RoshanTimer {
	min := int(t.MinAt.Sub(now) / time.Second)
	max := int(t.MaxAt.Sub(now) / time.Second)
	if min < 0 {
		min = 0
	}
	if max > 0 {
		max -= min
	} else {
		max = 0
	}
	t.MinSeconds = min
	t.MaxSeconds = max
	return t
}

// AegisTimer is the persisted aegis expiry record.
type AegisTimer struct {
	PlayerID      int       `json:"playerId"`
	ExpireSeconds int       `json:"expireS"`
	ExpireClock   string    `json:"expireTime"`
	ExpireAt      time.Time `json:"expireDate"`
}

// Remaining recomputes the expiry seconds against now, floored at zero.
func (t AegisTimer) Remaining(now time.Time) AegisTimer {
	left := int(t.ExpireAt.Sub(now) / time.Second)
	if left < 0 {
		left = 0
	}
	t.ExpireSeconds = left
	return t
}
