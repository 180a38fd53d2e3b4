package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// createEchoServer echoes every binary message back to the sender.
func createEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/records", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(msgType, data); err != nil {
				return
			}
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestWebSocketRoundTrip(t *testing.T) {
	server := createEchoServer(t)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/records"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ws, err := DialWebSocket(ctx, wsURL, nil, time.Second)
	require.NoError(t, err)
	defer ws.Close()

	first := []byte{0x15, 0x03, 0x03, 0x00, 0x02, 0x01, 0x00}
	second := []byte("application data")

	n, err := ws.Write(first)
	require.NoError(t, err)
	require.Equal(t, len(first), n)
	n, err = ws.Write(second)
	require.NoError(t, err)
	require.Equal(t, len(second), n)

	// Reads span message boundaries.
	got := make([]byte, len(first)+len(second))
	_, err = io.ReadFull(ws, got)
	require.NoError(t, err)
	require.Equal(t, append(append([]byte{}, first...), second...), got)
}

func TestDialWebSocketFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := DialWebSocket(ctx, "ws://127.0.0.1:1/none", nil, 0)
	require.Error(t, err)
}
