package utils

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeDeadline = 100 * time.Millisecond

// Hub tracks connected web UI clients and fans events out to them.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

func (h *Hub) AddClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// Broadcast sends an event to every client. Clients that miss the write
// deadline are dropped so one stalled browser tab cannot wedge the rest.
func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteJSON(event); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
