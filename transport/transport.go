package transport

import (
	"context"
	"errors"
	"os"
)

// ErrWouldBlock reports that a write could not make progress without blocking.
// It is a transient condition: the caller retries once the transport is writable.
var ErrWouldBlock = errors.New("transport: operation would block")

// Writer is the byte sink the record layer drains into. Write may accept only a
// prefix of p. A would-block condition is reported with an error for which
// IsWouldBlock returns true, together with the count of bytes accepted so far.
type Writer interface {
	Write(p []byte) (int, error)
}

// Reader is the receive-side counterpart of Writer.
type Reader interface {
	Read(p []byte) (int, error)
}

// Waiter is implemented by transports that can tell when a blocked write
// is worth retrying.
type Waiter interface {
	WaitWritable(ctx context.Context) error
}

// IsWouldBlock reports whether err is a transient would-block condition rather
// than a failure of the transport.
func IsWouldBlock(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrWouldBlock) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	return isErrnoWouldBlock(err)
}
