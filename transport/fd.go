//go:build unix

package transport

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// pollInterval bounds a single poll(2) call so that context cancellation is
// observed promptly.
const pollInterval = 100 // milliseconds

// FD writes to and reads from a raw file descriptor such as a socket or pipe.
// In non-blocking mode EAGAIN surfaces as ErrWouldBlock.
type FD struct {
	fd int
}

// NewFD wraps fd. When nonblocking is set, O_NONBLOCK is enabled on the
// descriptor so that writes never park the calling goroutine.
func NewFD(fd int, nonblocking bool) (*FD, error) {
	if fd < 0 {
		return nil, fmt.Errorf("invalid file descriptor: %d", fd)
	}
	if nonblocking {
		if err := unix.SetNonblock(fd, true); err != nil {
			return nil, fmt.Errorf("failed to set O_NONBLOCK on fd %d: %w", fd, err)
		}
	}
	return &FD{fd: fd}, nil
}

// Fd returns the wrapped descriptor.
func (f *FD) Fd() int {
	return f.fd
}

func (f *FD) Write(p []byte) (int, error) {
	for {
		n, err := unix.Write(f.fd, p)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		if err != nil {
			if isErrnoWouldBlock(err) {
				return n, fmt.Errorf("write fd %d: %w", f.fd, ErrWouldBlock)
			}
			return n, fmt.Errorf("write fd %d: %w", f.fd, err)
		}
		return n, nil
	}
}

func (f *FD) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(f.fd, p)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		if err != nil {
			if isErrnoWouldBlock(err) {
				return n, fmt.Errorf("read fd %d: %w", f.fd, ErrWouldBlock)
			}
			return n, fmt.Errorf("read fd %d: %w", f.fd, err)
		}
		if n == 0 && len(p) > 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

// WaitWritable blocks until the descriptor reports POLLOUT or ctx is done.
func (f *FD) WaitWritable(ctx context.Context) error {
	fds := []unix.PollFd{{Fd: int32(f.fd), Events: unix.POLLOUT}}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := unix.Poll(fds, pollInterval)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("poll fd %d: %w", f.fd, err)
		}
		if n > 0 {
			if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
				return fmt.Errorf("poll fd %d: revents 0x%x", f.fd, fds[0].Revents)
			}
			return nil
		}
	}
}

// Close closes the descriptor.
func (f *FD) Close() error {
	return unix.Close(f.fd)
}

var (
	_ Writer = (*FD)(nil)
	_ Reader = (*FD)(nil)
	_ Waiter = (*FD)(nil)
)
