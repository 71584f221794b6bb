package scheduler

import (
	"testing"
	"time"
)

func TestWallClockAfterFuncFires(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	NewWallClock().AfterFunc(-time.Second, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("callback did not fire")
	}
}

func TestWallClockStopPreventsCallback(t *testing.T) {
	t.Parallel()

	fired := make(chan struct{}, 1)
	timer := NewWallClock().AfterFunc(time.Hour, func() { fired <- struct{}{} })

	if !timer.Stop() {
		t.Fatalf("expected Stop to cancel a pending timer")
	}
	select {
	case <-fired:
		t.Fatalf("stopped timer fired")
	default:
	}
}
