package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket carries the byte stream as binary messages, one message per Write.
// A WebSocket write either completes or breaks the connection, so this
// transport never reports ErrWouldBlock.
type WebSocket struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	pending      []byte // unread remainder of the last received message
}

// NewWebSocket wraps an established connection.
func NewWebSocket(conn *websocket.Conn, writeTimeout time.Duration) *WebSocket {
	return &WebSocket{
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// DialWebSocket connects to a ws:// or wss:// URL.
func DialWebSocket(ctx context.Context, url string, header http.Header, writeTimeout time.Duration) (*WebSocket, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial websocket %s: %w", url, err)
	}
	return NewWebSocket(conn, writeTimeout), nil
}

func (w *WebSocket) Write(p []byte) (int, error) {
	if w.writeTimeout > 0 {
		if err := w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout)); err != nil {
			return 0, fmt.Errorf("failed to set write deadline: %w", err)
		}
	}
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, fmt.Errorf("websocket write: %w", err)
	}
	return len(p), nil
}

// Read returns message payload bytes, spanning message boundaries as needed.
func (w *WebSocket) Read(p []byte) (int, error) {
	for len(w.pending) == 0 {
		msgType, data, err := w.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		w.pending = data
	}
	n := copy(p, w.pending)
	w.pending = w.pending[n:]
	return n, nil
}

// Close sends a close frame and closes the connection.
func (w *WebSocket) Close() error {
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	return w.conn.Close()
}

var (
	_ Writer = (*WebSocket)(nil)
	_ Reader = (*WebSocket)(nil)
)
