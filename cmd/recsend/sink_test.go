package main

import (
	"bytes"
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tls-recsend/minitls"
	"tls-recsend/transport"
)

func recordStream(t *testing.T, cfg *minitls.Config, sizes ...int) []byte {
	t.Helper()
	w := &sink{}
	conn := newConn(t, w, cfg)
	for _, n := range sizes {
		_, more, err := conn.Send(bytes.Repeat([]byte{'a'}, n))
		require.NoError(t, err)
		require.False(t, more)
	}
	_, err := conn.Shutdown()
	require.NoError(t, err)
	return w.Bytes()
}

func TestSummarizeRecords(t *testing.T) {
	cfg := &minitls.Config{BytesOutThreshold: 2000, IdleMillisThreshold: 1000, MaxFragmentSize: 4096}
	stream := recordStream(t, cfg, 3000, 5000)

	s, err := summarizeRecords(bytes.NewReader(stream))
	require.NoError(t, err)
	// 3000 at 1398 per record, then 5000 at 4096.
	assert.Equal(t, 5, s.Records[minitls.RecordTypeApplicationData])
	assert.Equal(t, 1, s.Records[minitls.RecordTypeAlert])
	assert.Equal(t, int64(len(stream)), s.WireBytes)
	assert.Equal(t, 2, s.MinFragment)
	assert.Equal(t, 4096, s.MaxFragment)
	// 1398 1398 204 | 4096 904
	assert.Equal(t, 3, s.SizeChanges)
}

func TestSummarizeTruncatedStream(t *testing.T) {
	stream := recordStream(t, nil, 100)
	s, err := summarizeRecords(bytes.NewReader(stream[:len(stream)-1]))
	require.Error(t, err)
	assert.Equal(t, 1, s.Records[minitls.RecordTypeApplicationData])
}

func TestServeListenerSummarizesEachConnection(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveListener(ctx, l, zap.New(core)) }()

	stream := recordStream(t, nil, 10, 20)
	for i := 0; i < 2; i++ {
		conn, err := net.Dial("tcp", l.Addr().String())
		require.NoError(t, err)
		_, err = conn.Write(stream)
		require.NoError(t, err)
		require.NoError(t, conn.Close())
	}

	require.Eventually(t, func() bool {
		return logs.FilterMessage("Record stream summary").Len() == 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	entry := logs.FilterMessage("Record stream summary").All()[0]
	fields := entry.ContextMap()
	assert.EqualValues(t, 2, fields["application_data"])
	assert.EqualValues(t, 1, fields["alert"])
	assert.NotEmpty(t, fields["session_id"])
}

func TestWebSocketSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	srv := httptest.NewServer(wsHandler(zap.New(core)))
	defer srv.Close()

	ws, err := transport.DialWebSocket(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), nil, time.Second)
	require.NoError(t, err)

	conn := newConn(t, ws, nil)
	stats, err := pump(context.Background(), conn, ws, strings.NewReader(strings.Repeat("x", 5000)), 1024)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), stats.appBytes)
	require.NoError(t, ws.Close())

	require.Eventually(t, func() bool {
		return logs.FilterMessage("Record stream summary").Len() == 1
	}, 5*time.Second, 10*time.Millisecond)
	fields := logs.FilterMessage("Record stream summary").All()[0].ContextMap()
	assert.EqualValues(t, 5, fields["application_data"])
	assert.EqualValues(t, int64(conn.WireBytesOut()), fields["wire_bytes"])
}
