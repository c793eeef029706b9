// Package socket provides an interface for managing socket.
package socket

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// WebSocket wraps a gorilla websocket connection.
type WebSocket struct {
	conn *websocket.Conn
}

// New upgrades the HTTP request to a websocket connection.
func New(w http.ResponseWriter, r *http.Request) (*WebSocket, error) {
	ug := websocket.Upgrader{
		CheckOrigin: func(_ *http.Request) bool {
			return true
		},
	}
	conn, err := ug.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &WebSocket{
		conn: conn,
	}, nil
}

// Read reads the next JSON message into v.
func (s *WebSocket) Read(v any) error {
	return s.conn.ReadJSON(v)
}

// Write writes v as a JSON message.
func (s *WebSocket) Write(v any) error {
	return s.conn.WriteJSON(v)
}

// Close closes the underlying connection.
func (s *WebSocket) Close() error {
	return s.conn.Close()
}
