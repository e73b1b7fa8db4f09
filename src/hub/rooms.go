package hub

import (
	"github.com/parleychat/parley/src/types"
)

// SubscribersOf returns the connection ids currently subscribed to a room
// channel. May be empty.
func (h *Hub) SubscribersOf(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.rooms[roomID]))
	for id := range h.rooms[roomID] {
		ids = append(ids, id)
	}
	return ids
}

// broadcastToRoom fans an event out to every connection subscribed to the
// room. A room nobody joined is a no-op.
func (h *Hub) broadcastToRoom(roomID string, e types.ServerEvent) {
	h.mu.RLock()
	subs := h.rooms[roomID]
	clients := make([]*Client, 0, len(subs))
	for connID := range subs {
		if c, ok := h.clients[connID]; ok {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(e) {
			h.logger.Warn().Str("conn_id", c.ID).Str("room_id", roomID).
				Msg("send buffer full, dropping")
		}
	}
}
