package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// Deadlines for the session stream. The stream pushes one tick per
// second, so a write that cannot complete within a few ticks means
// the client is gone.
const (
	writeWait = 5 * time.Second
	readWait  = 5 * time.Minute
)

// WriteTyped sends one typed event to a stream client.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError reports a protocol error to a stream client.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// ReadJSON reads the next client message (pings, mostly) under a read
// deadline so dead connections get reaped.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(readWait))
	return conn.ReadJSON(v)
}
