package hub

import (
	"encoding/json"
	"fmt"

	"github.com/parleychat/parley/src/types"
)

// route dispatches one inbound event. Unknown events and payloads that
// fail decoding or validation are rejected with an error event back to
// the sender rather than silently dropped.
func (h *Hub) route(c *Client, e types.ClientEvent) {
	h.mu.RLock()
	_, registered := h.clients[c.ID]
	h.mu.RUnlock()
	if !registered {
		// The loop may pick up a disconnect before events the connection
		// buffered behind it. Handling those would write a dead conn id
		// into the indices, so they are dropped.
		h.logger.Debug().Str("conn_id", c.ID).Str("event", e.Event).
			Msg("dropping event from removed client")
		return
	}

	var err error
	switch e.Event {
	case types.EventUserConnect:
		err = h.handleConnect(c, e.Payload)
	case types.EventJoinRoom:
		err = h.handleJoinRoom(c, e.Payload)
	case types.EventSendMessage:
		err = h.handleSendMessage(c, e.Payload)
	case types.EventSendDirectMessage, types.EventNewDirectMessage:
		// Older clients emit the cue under the outbound name; both are
		// accepted.
		err = h.handleDirectMessage(c, e.Payload)
	case types.EventJoinDirectChat:
		err = h.handleJoinDirectChat(c, e.Payload)
	case types.EventUserLeft:
		err = h.handleUserLeft(c, e.Payload)
	default:
		err = fmt.Errorf("unknown event %q", e.Event)
	}

	if err != nil {
		h.logger.Warn().Str("conn_id", c.ID).Str("event", e.Event).
			Err(err).Msg("event rejected")
		c.trySend(types.ServerEvent{
			Event: types.EventError,
			Data:  types.ErrorPayload{Event: e.Event, Message: err.Error()},
		})
	}
}

// decode unmarshals and validates an event payload in one step.
func (h *Hub) decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// handleConnect maps the user id onto this connection. Last connect wins:
// a second login silently supersedes the previous mapping without closing
// the older connection.
func (h *Hub) handleConnect(c *Client, raw json.RawMessage) error {
	var p types.ConnectPayload

	if h.verify != nil {
		// Ignore validation of UserID here: identity comes from the token.
		if len(raw) == 0 {
			return fmt.Errorf("missing payload")
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("malformed payload: %w", err)
		}
		if p.Token == "" {
			return fmt.Errorf("session token required")
		}
		userID, err := h.verify(p.Token)
		if err != nil {
			return fmt.Errorf("invalid session token: %w", err)
		}
		if p.UserID != "" && p.UserID != userID {
			return fmt.Errorf("user id does not match session token")
		}
		p.UserID = userID
	} else if err := h.decode(raw, &p); err != nil {
		return err
	}

	h.mu.Lock()
	h.online[p.UserID] = c.ID
	h.mu.Unlock()

	h.logger.Info().Str("conn_id", c.ID).Str("user_id", p.UserID).
		Msg("user online")
	h.broadcastPresence()
	return nil
}

// handleJoinRoom adds the connection to the room's subscriber set and
// emits a synthetic system notice to the room. Joins are idempotent and
// unauthenticated by design: reading and writing room data is guarded by
// the REST layer, the socket layer only carries refetch cues.
func (h *Hub) handleJoinRoom(c *Client, raw json.RawMessage) error {
	var p types.JoinRoomPayload
	if err := h.decode(raw, &p); err != nil {
		return err
	}

	h.mu.Lock()
	if h.rooms[p.RoomID] == nil {
		h.rooms[p.RoomID] = make(map[string]bool)
	}
	h.rooms[p.RoomID][c.ID] = true
	h.mu.Unlock()

	h.logger.Debug().Str("conn_id", c.ID).Str("room_id", p.RoomID).
		Msg("joined room channel")

	h.broadcastToRoom(p.RoomID, types.ServerEvent{
		Event: types.EventNewMessage,
		Data: types.RoomNotice{
			Sender: "system",
			Text:   "A new user joined the room",
			RoomID: p.RoomID,
		},
	})
	return nil
}

// handleSendMessage is a transport-level echo kept for wire compatibility.
// The authoritative send path is the REST API, which persists the message;
// room subscribers are cued by the client's own new-message handling.
func (h *Hub) handleSendMessage(c *Client, raw json.RawMessage) error {
	var p types.SendMessagePayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("malformed payload: %w", err)
		}
	}
	h.logger.Debug().Str("conn_id", c.ID).Str("room_id", p.RoomID).
		Msg("send-message received")
	return nil
}

// handleDirectMessage relays a direct-message cue to the sender's and
// receiver's currently identified connections. Offline parties are
// skipped silently; nothing is queued.
func (h *Hub) handleDirectMessage(c *Client, raw json.RawMessage) error {
	var p types.DirectMessagePayload
	if err := h.decode(raw, &p); err != nil {
		return err
	}

	e := types.ServerEvent{Event: types.EventNewDirectMessage, Data: p}
	h.sendToUser(p.SenderID, e)
	if p.ReceiverID != p.SenderID {
		h.sendToUser(p.ReceiverID, e)
	}
	return nil
}

// handleJoinDirectChat validates the announcement and logs it. Direct
// message delivery targets the online-user index, so no subscription
// state is needed here.
func (h *Hub) handleJoinDirectChat(c *Client, raw json.RawMessage) error {
	var p types.JoinDirectChatPayload
	if err := h.decode(raw, &p); err != nil {
		return err
	}
	h.logger.Debug().Str("conn_id", c.ID).Str("user_id", p.UserID).
		Str("recipient_id", p.RecipientID).Msg("direct chat opened")
	return nil
}

// handleUserLeft relays an informational membership-change cue to the
// room's subscribers. The membership index keeps the leaving connection's
// stale subscription; relaying to it is harmless because the payload is a
// cue, not data.
func (h *Hub) handleUserLeft(c *Client, raw json.RawMessage) error {
	var p types.UserLeftPayload
	if err := h.decode(raw, &p); err != nil {
		return err
	}

	h.broadcastToRoom(p.RoomID, types.ServerEvent{
		Event: types.EventUserLeft,
		Data:  p,
	})
	return nil
}
