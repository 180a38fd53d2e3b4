package main

import (
	"context"
	"fmt"
	"io"

	"tls-recsend/transport"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openTransport connects the configured transport for sending.
func openTransport(ctx context.Context, cfg *Config) (transport.Writer, io.Closer, error) {
	switch cfg.Transport {
	case "tcp":
		conn, err := transport.Dial(ctx, "tcp", cfg.Addr, cfg.WriteTimeout)
		if err != nil {
			return nil, nil, err
		}
		return conn, conn, nil
	case "ws":
		ws, err := transport.DialWebSocket(ctx, cfg.Addr, nil, cfg.WriteTimeout)
		if err != nil {
			return nil, nil, err
		}
		return ws, ws, nil
	case "vsock":
		conn, err := transport.DialVsock(cfg.VsockCID, cfg.VsockPort, cfg.WriteTimeout)
		if err != nil {
			return nil, nil, err
		}
		return conn, conn, nil
	case "fd":
		return openFD(cfg.FD)
	default:
		return nil, nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
