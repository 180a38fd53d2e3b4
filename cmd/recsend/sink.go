package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tls-recsend/minitls"
	"tls-recsend/transport"
)

// recordSummary describes a received record stream. Fragments are not
// decrypted.
type recordSummary struct {
	Records      map[minitls.RecordType]int
	WireBytes    int64
	MinFragment  int
	MaxFragment  int
	SizeChanges  int // application data fragment length changes
	lastAppFrag  int
	sawAppRecord bool
}

func (s *recordSummary) add(rec *minitls.Record) {
	n := len(rec.Fragment)
	s.Records[rec.Type]++
	s.WireBytes += int64(minitls.RecordHeaderLen + n)
	if s.MinFragment == 0 || n < s.MinFragment {
		s.MinFragment = n
	}
	s.MaxFragment = max(s.MaxFragment, n)
	if rec.Type == minitls.RecordTypeApplicationData {
		if s.sawAppRecord && n != s.lastAppFrag {
			s.SizeChanges++
		}
		s.lastAppFrag = n
		s.sawAppRecord = true
	}
}

func (s *recordSummary) fields() []zap.Field {
	fields := []zap.Field{
		zap.Int64("wire_bytes", s.WireBytes),
		zap.Int("min_fragment", s.MinFragment),
		zap.Int("max_fragment", s.MaxFragment),
		zap.Int("size_changes", s.SizeChanges),
	}
	for typ, count := range s.Records {
		fields = append(fields, zap.Int(typ.String(), count))
	}
	return fields
}

// summarizeRecords reads records until r ends. A stream cut inside a record
// returns the summary so far together with the error.
func summarizeRecords(r io.Reader) (*recordSummary, error) {
	s := &recordSummary{Records: make(map[minitls.RecordType]int)}
	rr := minitls.NewRecordReader(r)
	for {
		rec, err := rr.ReadRecord()
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		if err != nil {
			return s, err
		}
		s.add(rec)
	}
}

func handleStream(r io.Reader, logger *zap.Logger) {
	start := time.Now()
	summary, err := summarizeRecords(r)
	fields := append(summary.fields(), zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		logger.Warn("Record stream ended abnormally", append(fields, zap.Error(err))...)
		return
	}
	logger.Info("Record stream summary", fields...)
}

// runSink accepts connections on the configured transport and logs a summary
// of each record stream.
func runSink(ctx context.Context, cfg *Config, logger *zap.Logger) error {
	switch cfg.Transport {
	case "tcp":
		l, err := net.Listen("tcp", cfg.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
		}
		return serveListener(ctx, l, logger)
	case "vsock":
		l, err := transport.ListenVsock(cfg.VsockPort)
		if err != nil {
			return err
		}
		return serveListener(ctx, l, logger)
	case "ws":
		return serveWebSocket(ctx, cfg.Addr, logger)
	case "fd":
		r, closer, err := openFDReader(cfg.FD)
		if err != nil {
			return err
		}
		defer closer.Close()
		handleStream(r, logger.With(zap.Int("fd", cfg.FD)))
		return nil
	default:
		return fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

func serveListener(ctx context.Context, l net.Listener, logger *zap.Logger) error {
	logger.Info("Listening", zap.String("addr", l.Addr().String()))
	go func() {
		<-ctx.Done()
		l.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()
			handleStream(conn, logger.With(
				zap.String("session_id", uuid.NewString()),
				zap.String("remote_addr", conn.RemoteAddr().String())))
		}()
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsHandler upgrades each request and summarizes the binary messages it
// carries as one byte stream.
func wsHandler(logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("WebSocket upgrade failed", zap.Error(err))
			return
		}
		ws := transport.NewWebSocket(conn, 0)
		defer ws.Close()
		handleStream(wsStream{ws}, logger.With(
			zap.String("session_id", uuid.NewString()),
			zap.String("remote_addr", r.RemoteAddr)))
	})
}

// wsStream maps a close frame to io.EOF so a closed session ends the stream
// cleanly.
type wsStream struct {
	ws *transport.WebSocket
}

func (s wsStream) Read(p []byte) (int, error) {
	n, err := s.ws.Read(p)
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return n, io.EOF
	}
	return n, err
}

func serveWebSocket(ctx context.Context, addr string, logger *zap.Logger) error {
	host := addr
	if u, err := url.Parse(addr); err == nil && u.Host != "" {
		host = u.Host
	}
	srv := &http.Server{
		Addr:              host,
		Handler:           wsHandler(logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Listening", zap.String("addr", host), zap.String("transport", "ws"))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket server failed: %w", err)
	}
	return nil
}
