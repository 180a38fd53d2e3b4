//go:build !unix

package main

import (
	"errors"
	"io"

	"tls-recsend/transport"
)

func openFD(int) (transport.Writer, io.Closer, error) {
	return nil, nil, errors.New("the fd transport needs a unix system")
}

func openFDReader(int) (io.Reader, io.Closer, error) {
	return nil, nil, errors.New("the fd transport needs a unix system")
}
