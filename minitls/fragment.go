package minitls

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Dynamic record sizing. A connection starts with records that fit one
// Ethernet frame so that the first bytes are decryptable as soon as they
// arrive. Once enough data has gone out for the congestion window to have
// opened, records grow to MaxFragmentSize. After an idle period TCP slow start
// restart shrinks the window again, so records shrink too.

type fragmentLevel uint8

const (
	fragmentMin fragmentLevel = iota
	fragmentMax
)

func (l fragmentLevel) String() string {
	if l == fragmentMax {
		return "max"
	}
	return "min"
}

type fragmentState struct {
	level    fragmentLevel
	bytesOut uint32 // application bytes sent since the last shrink
	idle     idleTimer
}

func newFragmentState(clk clock.Clock) fragmentState {
	return fragmentState{level: fragmentMin, idle: newIdleTimer(clk)}
}

// size maps the level to a fragment length. When MaxFragmentSize is below
// the default both levels use it.
func (s *fragmentState) size(cfg *Config) uint16 {
	if s.level == fragmentMax {
		return cfg.MaxFragmentSize
	}
	return min(uint16(DefaultFragmentLength), cfg.MaxFragmentSize)
}

// addBytes counts application bytes, saturating at MaxUint32.
func (s *fragmentState) addBytes(n int) {
	if uint64(s.bytesOut)+uint64(n) > math.MaxUint32 {
		s.bytesOut = math.MaxUint32
		return
	}
	s.bytesOut += uint32(n)
}

func (s *fragmentState) reset() {
	s.level = fragmentMin
	s.bytesOut = 0
	s.idle.reset()
}

// adjustRecordSize runs once per Send, before the data is fragmented.
func (c *Conn) adjustRecordSize() error {
	s := &c.frag
	prev := *s
	from := s.size(&c.config)

	switch s.level {
	case fragmentMax:
		// Reading the idle time restarts the timer, whether or not we shrink.
		idle := s.idle.reset()
		if idle >= time.Duration(c.config.IdleMillisThreshold)*time.Millisecond {
			s.level = fragmentMin
			s.bytesOut = 0
		}
	case fragmentMin:
		if c.config.growthEnabled() && s.bytesOut >= c.config.BytesOutThreshold {
			s.level = fragmentMax
			s.idle.reset()
		}
	}

	to := s.size(&c.config)
	if to == from {
		return nil
	}

	if err := c.out.Resize(RecordLength(int(to))); err != nil {
		if IsAllocFailure(err) {
			// Dynamic sizing is best effort: keep the old size and carry on.
			s.level = prev.level
			c.logger.Warn("Record size change skipped",
				zap.Uint16("from", from),
				zap.Uint16("to", to),
				zap.Error(err))
			return nil
		}
		return err
	}

	c.logger.Debug("Record size changed",
		zap.Uint16("from", from),
		zap.Uint16("to", to),
		zap.Stringer("level", s.level),
		zap.Uint32("bytes_out", prev.bytesOut))
	return nil
}
