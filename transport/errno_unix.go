//go:build unix

package transport

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isErrnoWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
