package minitls

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"tls-recsend/transport"
)

// Flush writes any buffered record bytes to the transport, then sends a
// staged alert, if any, and closes the connection behind it.
//
// more reports that the transport would block with bytes still buffered;
// call Flush again once it is writable. A non-nil error is fatal.
func (c *Conn) Flush() (more bool, err error) {
	if c.err != nil {
		return false, c.err
	}
	if c.freed {
		return false, ErrClosed
	}

	for {
		if more, err := c.drain(); err != nil || more {
			return more, err
		}

		if c.closing {
			c.closed = true
			c.Wipe()
			c.logger.Info("Connection closed", zap.Uint64("wire_bytes_out", c.wireBytesOut))
		}
		c.out.Rewrite()

		alert, ok := c.nextAlert()
		if !ok {
			return false, nil
		}
		if err := c.writeRecord(RecordTypeAlert, alert[:]); err != nil {
			return false, c.fail(err)
		}
		c.closing = true
		c.logger.Debug("Alert emitted",
			zap.Uint8("level", alert[0]),
			zap.String("description", AlertDescriptionString(alert[1])))
	}
}

// drain writes buffered bytes until the buffer is empty or the transport
// would block.
func (c *Conn) drain() (more bool, err error) {
	for c.out.Len() > 0 {
		n, err := c.w.Write(c.out.Bytes())
		if n > 0 {
			c.out.Skip(n)
			c.wireBytesOut += uint64(n)
		}
		if err != nil {
			if transport.IsWouldBlock(err) {
				return true, nil
			}
			return false, c.fail(&TransportError{Op: "write", Err: err})
		}
		if n == 0 {
			return false, c.fail(&TransportError{Op: "write", Err: io.ErrNoProgress})
		}
	}
	return false, nil
}

func (c *Conn) writeRecord(typ RecordType, payload []byte) error {
	if err := c.emitter.WriteRecord(c.out, typ, payload); err != nil {
		return fmt.Errorf("failed to write %s record: %w", typ, err)
	}
	return nil
}
