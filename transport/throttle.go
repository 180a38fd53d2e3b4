package transport

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"
)

// Throttled shapes writes to an underlying Writer with a token bucket, one
// token per byte. When the bucket is empty Write reports ErrWouldBlock, which
// makes it a convenient stand-in for a congested non-blocking socket.
type Throttled struct {
	w       Writer
	limiter *rate.Limiter
	clock   clock.Clock
}

// NewThrottled limits w to bytesPerSecond with the given burst.
func NewThrottled(w Writer, bytesPerSecond float64, burst int) *Throttled {
	return NewThrottledWithLimiter(w, rate.NewLimiter(rate.Limit(bytesPerSecond), burst), nil)
}

// NewThrottledWithLimiter uses an existing limiter. A nil clk means wall time.
func NewThrottledWithLimiter(w Writer, limiter *rate.Limiter, clk clock.Clock) *Throttled {
	if clk == nil {
		clk = clock.New()
	}
	return &Throttled{
		w:       w,
		limiter: limiter,
		clock:   clk,
	}
}

func (t *Throttled) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	now := t.clock.Now()
	n := len(p)
	if tokens := int(t.limiter.TokensAt(now)); tokens < n {
		n = tokens
	}
	if n <= 0 || !t.limiter.AllowN(now, n) {
		return 0, ErrWouldBlock
	}
	return t.w.Write(p[:n])
}

// WaitWritable waits until at least one byte may be written.
func (t *Throttled) WaitWritable(ctx context.Context) error {
	now := t.clock.Now()
	r := t.limiter.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("throttle: burst %d admits no writes", t.limiter.Burst())
	}
	delay := r.DelayFrom(now)
	r.CancelAt(now)

	if delay > 0 {
		timer := t.clock.Timer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if waiter, ok := t.w.(Waiter); ok {
		return waiter.WaitWritable(ctx)
	}
	return nil
}

var (
	_ Writer = (*Throttled)(nil)
	_ Waiter = (*Throttled)(nil)
)
