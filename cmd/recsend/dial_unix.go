//go:build unix

package main

import (
	"io"

	"tls-recsend/transport"
)

// openFD writes to an inherited descriptor in non-blocking mode. The
// descriptor is left open; it belongs to the parent process.
func openFD(fd int) (transport.Writer, io.Closer, error) {
	f, err := transport.NewFD(fd, true)
	if err != nil {
		return nil, nil, err
	}
	return f, nopCloser{}, nil
}

// openFDReader reads an inherited descriptor in blocking mode.
func openFDReader(fd int) (io.Reader, io.Closer, error) {
	f, err := transport.NewFD(fd, false)
	if err != nil {
		return nil, nil, err
	}
	return f, nopCloser{}, nil
}
