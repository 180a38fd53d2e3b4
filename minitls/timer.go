package minitls

import (
	"time"

	"github.com/benbjohnson/clock"
)

// idleTimer is a stopwatch over a clock.Clock. Reading it restarts it.
type idleTimer struct {
	clock clock.Clock
	start time.Time
}

func newIdleTimer(clk clock.Clock) idleTimer {
	return idleTimer{clock: clk, start: clk.Now()}
}

// reset restarts the timer and returns the time elapsed since the previous
// reset.
func (t *idleTimer) reset() time.Duration {
	now := t.clock.Now()
	elapsed := now.Sub(t.start)
	t.start = now
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed
}
