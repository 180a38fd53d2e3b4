package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// Conn adapts a net.Conn. With a non-zero write timeout every Write carries a
// deadline, and an expired deadline is reported as ErrWouldBlock together with
// the bytes that did make it out.
type Conn struct {
	conn         net.Conn
	writeTimeout time.Duration
}

// NewConn wraps conn. A zero writeTimeout makes writes fully blocking.
func NewConn(conn net.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// Dial connects to addr over network and wraps the connection.
func Dial(ctx context.Context, network, addr string, writeTimeout time.Duration) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s %s: %w", network, addr, err)
	}
	return NewConn(conn, writeTimeout), nil
}

func (c *Conn) Write(p []byte) (int, error) {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return 0, fmt.Errorf("failed to set write deadline: %w", err)
		}
	}
	n, err := c.conn.Write(p)
	if err != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		return n, fmt.Errorf("%w: %v", ErrWouldBlock, err)
	}
	return n, err
}

func (c *Conn) Read(p []byte) (int, error) {
	return c.conn.Read(p)
}

// NetConn returns the underlying connection.
func (c *Conn) NetConn() net.Conn {
	return c.conn
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

var (
	_ Writer = (*Conn)(nil)
	_ Reader = (*Conn)(nil)
)
