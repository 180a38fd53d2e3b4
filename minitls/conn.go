package minitls

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tls-recsend/transport"
)

// Conn is the outbound half of a TLS connection after the handshake: it
// frames application data into records, sizes them dynamically, and
// interleaves alerts and closure into the same stream.
//
// A Conn is not safe for concurrent use. Send and Flush never block on their
// own; when the transport would block they return with more set and the
// caller retries once the transport is writable.
type Conn struct {
	id      string
	config  Config
	w       transport.Writer
	emitter RecordEmitter
	logger  *zap.Logger
	clock   clock.Clock
	alloc   Allocator

	out  *OutputBuffer
	frag fragmentState

	readerAlert pendingAlert
	writerAlert pendingAlert

	closing bool
	closed  bool
	freed   bool
	err     error // sticky fatal error

	wireBytesOut uint64
}

// Option configures a Conn.
type Option func(*Conn)

// WithLogger sets the logger. The connection id is added to every entry.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Conn) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock sets the clock used by the idle timer.
func WithClock(clk clock.Clock) Option {
	return func(c *Conn) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithAllocator sets the allocator used for the output buffer.
func WithAllocator(alloc Allocator) Option {
	return func(c *Conn) {
		if alloc != nil {
			c.alloc = alloc
		}
	}
}

// WithID overrides the generated connection id.
func WithID(id string) Option {
	return func(c *Conn) {
		if id != "" {
			c.id = id
		}
	}
}

// NewConn creates the output state for an established connection writing to
// w. A nil config means DefaultConfig().
func NewConn(w transport.Writer, emitter RecordEmitter, config *Config, opts ...Option) (*Conn, error) {
	if w == nil {
		return nil, fmt.Errorf("nil transport writer")
	}
	if emitter == nil {
		return nil, fmt.Errorf("nil record emitter")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Conn{
		id:      uuid.NewString(),
		config:  *config,
		w:       w,
		emitter: emitter,
		logger:  zap.NewNop(),
		clock:   clock.New(),
		alloc:   DefaultAllocator,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("conn_id", c.id))
	c.frag = newFragmentState(c.clock)

	out, err := NewOutputBuffer(RecordLength(int(c.frag.size(&c.config))), c.alloc)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate output buffer: %w", err)
	}
	c.out = out

	c.logger.Debug("Connection output state created",
		zap.String("version", VersionName(emitter.Version())),
		zap.Stringer("cipher", emitter.CipherKind()),
		zap.Uint32("bytes_out_threshold", c.config.BytesOutThreshold),
		zap.Uint32("idle_millis_threshold", c.config.IdleMillisThreshold),
		zap.Uint16("max_fragment_size", c.config.MaxFragmentSize))

	return c, nil
}

// ID returns the connection id used in logs.
func (c *Conn) ID() string { return c.id }

// WireBytesOut returns the total bytes handed to the transport, including
// record framing and alerts.
func (c *Conn) WireBytesOut() uint64 { return c.wireBytesOut }

// CurrentFragmentSize returns the record fragment size currently in effect.
func (c *Conn) CurrentFragmentSize() uint16 { return c.frag.size(&c.config) }

// Pending returns the number of serialized bytes not yet written.
func (c *Conn) Pending() int {
	if c.out == nil {
		return 0
	}
	return c.out.Len()
}

// Closing reports whether an alert has been emitted and closure is underway.
func (c *Conn) Closing() bool { return c.closing }

// Closed reports whether the connection has finished closing.
func (c *Conn) Closed() bool { return c.closed || c.freed }

// Err returns the fatal error that ended the connection, if any.
func (c *Conn) Err() error { return c.err }

// fail records a fatal error. Every later call returns it.
func (c *Conn) fail(err error) error {
	if c.err == nil {
		c.err = err
		c.logger.Error("Connection failed", zap.Error(err))
	}
	return c.err
}

// Wipe discards transient output state: pending alerts, buffered bytes and
// the dynamic record size. The closed flag is kept.
func (c *Conn) Wipe() {
	c.readerAlert.clear()
	c.writerAlert.clear()
	c.closing = false
	c.frag.reset()
	if c.out != nil {
		c.out.Release()
	}
}

// Free releases the connection's resources. Send and Flush return ErrClosed
// afterwards.
func (c *Conn) Free() {
	c.Wipe()
	c.out = nil
	c.freed = true
}
