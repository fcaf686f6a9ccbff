package ws_party

import (
	"log/slog"
	"sync"

	"github.com/goccy/go-json"
	"github.com/humanbelnik/watchparty/internal/metrics"
	"github.com/humanbelnik/watchparty/internal/model"
)

type Hub struct {
	mu sync.RWMutex

	// Keep track of sets of Clients within each room
	rooms map[model.RoomCode]map[*Client]bool

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:  make(map[model.RoomCode]map[*Client]bool),
		logger: logger,
	}
}

func (h *Hub) Subscribe(code model.RoomCode, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[code]; !ok {
		h.rooms[code] = make(map[*Client]bool)
	}
	h.rooms[code][client] = true
}

func (h *Hub) Unsubscribe(code model.RoomCode, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[code]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, code)
		}
	}
}

func (h *Hub) Subscribers(code model.RoomCode) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}

// Broadcast sends event to every client of the room. Clients whose queue is
// full are dropped, their writer then closes the connection.
func (h *Hub) Broadcast(code model.RoomCode, event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", "error", err, "type", event.Type, "room", code)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.rooms[code] {
		if client.enqueue(message) {
			continue
		}
		client.closeSend()
		delete(h.rooms[code], client)
		metrics.WSDroppedClients.Inc()
		h.logger.Warn("client dropped, send queue full", "room", code, "connection_id", client.id)
	}
	if len(h.rooms[code]) == 0 {
		delete(h.rooms, code)
	}
}

// Send delivers event to a single client.
func (h *Hub) Send(client *Client, event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", "error", err, "type", event.Type)
		return
	}
	if !client.enqueue(message) {
		h.logger.Warn("reply dropped, send queue full", "connection_id", client.id, "type", event.Type)
	}
}
