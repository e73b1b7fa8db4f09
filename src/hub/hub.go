package hub

import (
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/parleychat/parley/src/types"
	"github.com/rs/zerolog"
)

// IdentityVerifier checks a session token and returns the user id it was
// issued for. When a hub has a verifier, user:connect events must carry a
// valid token; the self-asserted user id on the wire is only trusted when
// no verifier is configured.
type IdentityVerifier func(token string) (string, error)

// Hub owns all socket-side state: the connection registry, the online-user
// index and the room membership index. Every mutation happens on the Run
// loop, one inbound event at a time, so per-connection ordering is the
// arrival order and the maps never see concurrent writes from handlers.
// The mutex only guards the read-side query methods used by the HTTP layer.
type Hub struct {
	clients map[string]*Client         // connection id -> client
	online  map[string]string          // user id -> current connection id
	rooms   map[string]map[string]bool // room id -> set of connection ids

	register   chan *Client
	unregister chan *Client
	incoming   chan inbound

	verify   IdentityVerifier
	validate *validator.Validate
	mu       sync.RWMutex
	logger   zerolog.Logger
	done     chan struct{}
}

// inbound pairs a client event with the connection that produced it.
type inbound struct {
	client *Client
	event  types.ClientEvent
}

// New creates a Hub with empty state. The indices are process-local and
// rebuilt from nothing on restart; there is no durability requirement.
func New(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		online:     make(map[string]string),
		rooms:      make(map[string]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan inbound, 256),
		validate:   validator.New(),
		logger:     logger.With().Str("component", "hub").Logger(),
		done:       make(chan struct{}),
	}
}

// SetIdentityVerifier binds socket identification to verified session
// tokens. Must be called before Run.
func (h *Hub) SetIdentityVerifier(v IdentityVerifier) {
	h.verify = v
}

// Run starts the hub event loop. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		case in := <-h.incoming:
			h.route(in.client, in.event)
		case <-h.done:
			return
		}
	}
}

// Stop halts the hub event loop.
func (h *Hub) Stop() {
	close(h.done)
}

// Register queues a client for registration.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister queues a client for removal.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// addClient registers a new connection. No online-user entry exists until
// the client identifies itself with a user:connect event.
func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	h.logger.Info().Str("conn_id", c.ID).Msg("client connected")
}

// removeClient drops a connection, its room subscriptions, and, if it is
// still the current connection for its user, the online-user entry. A
// superseded connection (the user re-identified elsewhere) must not touch
// the index: the newer connection stays authoritative.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)

	for roomID, subs := range h.rooms {
		delete(subs, c.ID)
		if len(subs) == 0 {
			delete(h.rooms, roomID)
		}
	}

	removed := false
	for userID, connID := range h.online {
		if connID == c.ID {
			delete(h.online, userID)
			removed = true
			break
		}
	}
	h.mu.Unlock()

	c.Close()
	h.logger.Info().Str("conn_id", c.ID).Bool("presence_dropped", removed).
		Msg("client disconnected")

	if removed {
		h.broadcastPresence()
	}
}
