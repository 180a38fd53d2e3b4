package minitls

import (
	"fmt"
)

// Send frames data as application data records and writes them out.
//
// n is the number of bytes of data consumed; those bytes must not be passed
// again. more reports that the transport would block before all of data was
// written: call Send again with data[n:] once it is writable. A non-nil
// error other than ErrClosed leaves the connection unusable.
func (c *Conn) Send(data []byte) (n int, more bool, err error) {
	if c.err != nil {
		return 0, false, c.err
	}
	if c.Closed() {
		return 0, false, ErrClosed
	}

	// Residue from an earlier call goes first.
	if more, err := c.Flush(); err != nil || more {
		return 0, more, err
	}
	if c.closed {
		return 0, false, ErrClosed
	}

	if err := c.adjustRecordSize(); err != nil {
		return 0, false, c.fail(err)
	}

	maxPayload := c.emitter.MaxPayloadSize(c.CurrentFragmentSize())
	if maxPayload <= 0 {
		return 0, false, c.fail(fmt.Errorf("fragment size %d leaves no room for payload: %w",
			c.CurrentFragmentSize(), ErrRecordTooLarge))
	}

	// TLS 1.0 CBC records use the previous record's last ciphertext block as
	// IV, which lets an attacker choose plaintext against a known IV (BEAST).
	// A 1-byte first record randomizes the IV for the rest of the call.
	split := c.emitter.Version() < VersionTLS11 && c.emitter.CipherKind() == CipherBlock

	for len(data) > 0 {
		chunk := min(len(data), maxPayload)
		if split && chunk > 1 {
			chunk = 1
			split = false
		}

		c.out.Rewrite()
		if err := c.writeRecord(RecordTypeApplicationData, data[:chunk]); err != nil {
			return n, false, c.fail(err)
		}
		n += chunk
		c.frag.addBytes(chunk)
		data = data[chunk:]

		if more, err := c.drain(); err != nil {
			return n, false, err
		} else if more {
			return n, true, nil
		}
	}

	return n, false, nil
}
