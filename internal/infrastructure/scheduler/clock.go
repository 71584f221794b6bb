package scheduler

import (
	"time"

	"SearchScorer/internal/ports"
)

// WallClock schedules callbacks on real timers.
type WallClock struct{}

var _ ports.Clock = WallClock{}

// NewWallClock returns the process clock.
func NewWallClock() WallClock {
	return WallClock{}
}

// Now reports the current time.
func (WallClock) Now() time.Time {
	return time.Now()
}

// AfterFunc runs f on its own goroutine once d has elapsed.
func (WallClock) AfterFunc(d time.Duration, f func()) ports.Timer {
	if d < 0 {
		d = 0
	}
	return time.AfterFunc(d, f)
}
