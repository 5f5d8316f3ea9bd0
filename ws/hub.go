package ws

import (
	"log/slog"
	"sync"
)

// Hub is the process-local room subscription registry: conversation id ->
// set of live connections. It holds no persisted state; subscriptions are
// rebuilt from the domain model on connect and discarded on disconnect.
type Hub struct {
	mu sync.RWMutex
	// roomID -> subscribed clients
	rooms map[int]map[*Client]bool
	// client -> rooms it is subscribed to, for bulk removal on disconnect
	subscriptions map[*Client]map[int]bool

	log *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		rooms:         make(map[int]map[*Client]bool),
		subscriptions: make(map[*Client]map[int]bool),
		log:           log,
	}
}

// Join subscribes the client to a room. Joining twice is a no-op.
func (h *Hub) Join(roomID int, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][c] = true

	if h.subscriptions[c] == nil {
		h.subscriptions[c] = make(map[int]bool)
	}
	h.subscriptions[c][roomID] = true

	h.log.Debug("client joined room", "userId", c.userID, "roomId", roomID, "roomSize", len(h.rooms[roomID]))
}

// Leave unsubscribes the client from a room. Leaving a room the client never
// joined is a no-op, not an error.
func (h *Hub) Leave(roomID int, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(roomID, c)
}

// RemoveClient unsubscribes the client from every room, invoked on
// disconnect.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomID := range h.subscriptions[c] {
		h.removeLocked(roomID, c)
	}
	delete(h.subscriptions, c)
}

func (h *Hub) removeLocked(roomID int, c *Client) {
	clients, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}

	delete(clients, c)
	if len(clients) == 0 {
		delete(h.rooms, roomID)
	}
	if subs := h.subscriptions[c]; subs != nil {
		delete(subs, roomID)
	}
}

// Broadcast delivers data to every client subscribed to the room except the
// excluded one (the originating sender never receives its own echo through
// this path). Delivery is best-effort: a client whose outbound buffer is
// full is dropped from the hub rather than stalling the others.
func (h *Hub) Broadcast(roomID int, exclude *Client, data []byte) {
	var stalled []*Client

	h.mu.RLock()
	for c := range h.rooms[roomID] {
		if c == exclude {
			continue
		}
		if !c.trySend(data) {
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		h.log.Warn("dropping stalled client", "userId", c.userID, "roomId", roomID)
		h.RemoveClient(c)
		c.closeSend()
	}
}

// RoomSize returns the number of live connections subscribed to the room.
func (h *Hub) RoomSize(roomID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
