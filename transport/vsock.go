package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/mdlayher/vsock"
)

// vsockDialFunc is swapped out in tests.
var vsockDialFunc = func(cid, port uint32) (net.Conn, error) {
	return vsock.Dial(cid, port, nil)
}

// DialVsock connects to an AF_VSOCK endpoint, typically an enclave or its
// parent instance.
func DialVsock(cid, port uint32, writeTimeout time.Duration) (*Conn, error) {
	conn, err := vsockDialFunc(cid, port)
	if err != nil {
		return nil, fmt.Errorf("failed to dial vsock cid=%d port=%d: %w", cid, port, err)
	}
	return NewConn(conn, writeTimeout), nil
}

// ListenVsock listens for AF_VSOCK connections on port.
func ListenVsock(port uint32) (net.Listener, error) {
	l, err := vsock.Listen(port, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on vsock port %d: %w", port, err)
	}
	return l, nil
}
