package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub fans session events out to every connected client. A write
// failure drops the connection; the client is expected to reconnect.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
	log   zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]bool),
		log:   log.With().Str("component", "ws_hub").Logger(),
	}
}

func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

func (h *Hub) broadcast(v interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := WriteTyped(conn, v); err != nil {
			h.log.Debug().Err(err).Msg("Dropping stale websocket client")
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// ─── service.Notifier implementation ────────────────────────────────

func (h *Hub) NotifyTick(secondsRemaining int, active bool) {
	h.broadcast(TickEvent{Event: EventTick, SecondsRemaining: secondsRemaining, Active: active})
}

func (h *Hub) NotifyReset(generation int64) {
	h.broadcast(ResetEvent{Event: EventReset, Generation: generation})
}

func (h *Hub) NotifySubmitted(filename string, auto bool) {
	h.broadcast(SubmittedEvent{Event: EventSubmitted, Filename: filename, Auto: auto})
}

func (h *Hub) NotifyExpired() {
	h.broadcast(ExpiredEvent{Event: EventExpired})
}
