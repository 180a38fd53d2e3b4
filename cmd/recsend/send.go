package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"tls-recsend/minitls"
	"tls-recsend/transport"
)

// retryDelay is how long to back off after would-block on a transport that
// cannot report writability.
const retryDelay = 5 * time.Millisecond

type sendStats struct {
	appBytes  int64
	sendCalls int
	blocked   int
}

// waitWritable parks until w is worth writing to again.
func waitWritable(ctx context.Context, w transport.Writer) error {
	if waiter, ok := w.(transport.Waiter); ok {
		return waiter.WaitWritable(ctx)
	}
	timer := time.NewTimer(retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// pump streams in through conn in chunkSize reads, then closes the
// connection with close_notify.
func pump(ctx context.Context, conn *minitls.Conn, w transport.Writer, in io.Reader, chunkSize int) (sendStats, error) {
	var stats sendStats
	buf := make([]byte, chunkSize)

	for {
		n, rerr := in.Read(buf)
		data := buf[:n]
		for len(data) > 0 {
			sent, more, err := conn.Send(data)
			stats.sendCalls++
			stats.appBytes += int64(sent)
			if err != nil {
				return stats, err
			}
			data = data[sent:]
			if more {
				stats.blocked++
				if err := waitWritable(ctx, w); err != nil {
					return stats, err
				}
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return stats, fmt.Errorf("failed to read input: %w", rerr)
		}
	}

	more, err := conn.Shutdown()
	for err == nil && more {
		if err = waitWritable(ctx, w); err != nil {
			break
		}
		more, err = conn.Flush()
	}
	return stats, err
}

func runSend(ctx context.Context, cfg *Config, logger *zap.Logger, in io.Reader) error {
	w, closer, err := openTransport(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	if cfg.Rate > 0 {
		w = transport.NewThrottled(w, cfg.Rate, minitls.RecordLength(minitls.MaxFragmentLength))
	}

	randoms, err := newSessionRandoms()
	if err != nil {
		return err
	}
	emitter, err := newRecordWriter(cfg, randoms)
	if err != nil {
		return fmt.Errorf("failed to set up record protection: %w", err)
	}

	conn, err := minitls.NewConn(w, emitter, &cfg.Record, minitls.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.Info("Sending",
		zap.String("conn_id", conn.ID()),
		zap.String("transport", cfg.Transport),
		zap.String("addr", cfg.Addr),
		zap.String("version", minitls.VersionName(cfg.Version)),
		zap.String("cipher_suite", minitls.CipherSuiteName(cfg.Suite)),
		zap.Bool("protected", len(cfg.PSK) > 0),
		zap.Binary("client_random", randoms.client[:]),
		zap.Binary("server_random", randoms.server[:]))

	start := time.Now()
	stats, err := pump(ctx, conn, w, in, cfg.ChunkSize)
	logger.Info("Send finished",
		zap.String("conn_id", conn.ID()),
		zap.Int64("app_bytes", stats.appBytes),
		zap.Uint64("wire_bytes", conn.WireBytesOut()),
		zap.Int("send_calls", stats.sendCalls),
		zap.Int("blocked", stats.blocked),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("closed", conn.Closed()))
	conn.Free()
	return err
}
