package ipc

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 5 * time.Second
)

// WebSocket carries one envelope per text message.
type WebSocket struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewWebSocket(conn *websocket.Conn) *WebSocket {
	conn.SetReadLimit(MaxFrame)
	return &WebSocket{conn: conn}
}

// DialWebSocket connects to a controller listening on url.
func DialWebSocket(url string) (*WebSocket, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewWebSocket(conn), nil
}

func (w *WebSocket) Read() (Envelope, error) {
	_ = w.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	kind, msg, err := w.conn.ReadMessage()
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return Envelope{}, ErrClosed
	}
	if err != nil {
		return Envelope{}, fmt.Errorf("read message: %w", err)
	}
	if kind != websocket.TextMessage {
		return Envelope{}, fmt.Errorf("unexpected websocket message type %d", kind)
	}
	return decodeEnvelope(msg)
}

func (w *WebSocket) Write(env Envelope) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := w.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (w *WebSocket) Close() error {
	w.mu.Lock()
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	w.mu.Unlock()
	return w.conn.Close()
}

// WebSocketHandler upgrades each request and hands the transport to serve,
// which owns it until it returns.
func WebSocketHandler(serve func(Transport)) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		slog.Info("websocket connection accepted", "remote", r.RemoteAddr)
		serve(NewWebSocket(conn))
	}
}
