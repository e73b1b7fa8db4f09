package hub

// ClientCount returns the number of connected transports.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCounts returns active room channels with their subscriber counts.
func (h *Hub) RoomCounts() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	counts := make(map[string]int, len(h.rooms))
	for roomID, subs := range h.rooms {
		counts[roomID] = len(subs)
	}
	return counts
}

// ConnectionFor returns the current connection id mapped to a user, or
// false if the user is offline.
func (h *Hub) ConnectionFor(userID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	connID, ok := h.online[userID]
	return connID, ok
}
