package timeutil

import (
	"fmt"
	"time"
)

// Clock is an injectable time source.
type Clock func() time.Time

// Resolve returns the given clock or time.Now.
func Resolve(clock Clock) Clock {
	if clock != nil {
		return clock
	}
	return time.Now
}

// FormatClock renders in-game seconds as a M:SS (or H:MM:SS) scoreboard
// clock. Negative values, which the game reports before the horn, keep
// their sign.
func FormatClock(seconds int) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%s%d:%02d:%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%s%d:%02d", sign, m, s)
}
