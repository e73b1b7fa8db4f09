package hub

import (
	"sort"

	"github.com/parleychat/parley/src/types"
	"github.com/samber/lo"
)

// OnlineUsers returns the ids of all currently identified users, sorted
// for stable output.
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	ids := lo.Keys(h.online)
	h.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// broadcastPresence emits the full online-user-id set to every connected
// transport, identified or not. O(connections) per index change; fine for
// a single process, a known ceiling beyond that.
func (h *Hub) broadcastPresence() {
	e := types.ServerEvent{
		Event: types.EventUsersOnline,
		Data:  h.OnlineUsers(),
	}

	h.mu.RLock()
	clients := lo.Values(h.clients)
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(e) {
			h.logger.Warn().Str("conn_id", c.ID).Msg("send buffer full, dropping")
		}
	}
}

// sendToUser delivers an event to the user's current connection, if any.
// Best effort: offline users and full buffers drop the event.
func (h *Hub) sendToUser(userID string, e types.ServerEvent) bool {
	h.mu.RLock()
	connID, online := h.online[userID]
	var c *Client
	if online {
		c = h.clients[connID]
	}
	h.mu.RUnlock()

	if c == nil {
		return false
	}
	return c.trySend(e)
}
