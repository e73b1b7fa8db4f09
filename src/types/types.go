package types

import "encoding/json"

// Inbound event names accepted by the hub.
const (
	EventUserConnect       = "user:connect"
	EventJoinRoom          = "join-room"
	EventSendMessage       = "send-message"
	EventSendDirectMessage = "send-direct-message"
	EventJoinDirectChat    = "join-direct-chat"
	EventUserLeft          = "user-left"
)

// Outbound event names emitted by the hub.
const (
	EventUsersOnline      = "users:online"
	EventNewMessage       = "new-message"
	EventNewDirectMessage = "new-direct-message"
	EventError            = "error"
)

// ClientEvent is the envelope for every message a client sends over the
// socket. Payload decoding is deferred until the event name is known so
// the router can reject unknown or malformed events explicitly.
type ClientEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerEvent is the envelope for every message the hub writes to a client.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// ConnectPayload identifies a connection as a user. Token is required when
// the hub is configured with an identity verifier; UserID alone is honored
// otherwise.
type ConnectPayload struct {
	UserID string `json:"userId" validate:"required"`
	Token  string `json:"token,omitempty"`
}

// JoinRoomPayload subscribes the connection to a room channel.
type JoinRoomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

// SendMessagePayload is accepted for wire compatibility. The authoritative
// send path is the REST API; the hub only logs this event.
type SendMessagePayload struct {
	RoomID  string `json:"roomId"`
	Content string `json:"content"`
}

// DirectMessagePayload cues a relay to the sender's and receiver's
// currently identified connections. Content here is a refetch cue, not
// the stored message.
type DirectMessagePayload struct {
	SenderID   string `json:"senderId" validate:"required"`
	ReceiverID string `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

// JoinDirectChatPayload announces that a client opened a direct
// conversation. Delivery of direct messages rides the online-user index,
// so this event is acknowledged but carries no subscription state.
type JoinDirectChatPayload struct {
	UserID      string `json:"userId" validate:"required"`
	RecipientID string `json:"recipientId" validate:"required"`
}

// UserLeftPayload is an informational room-membership-change cue relayed
// to the room's subscribers. RemovedBy is "self" for voluntary leaves.
type UserLeftPayload struct {
	RoomID    string `json:"roomId" validate:"required"`
	Username  string `json:"username" validate:"required"`
	RemovedBy string `json:"removedBy,omitempty"`
}

// RoomNotice is the outbound payload of a new-message cue.
type RoomNotice struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
	RoomID string `json:"roomId"`
}

// ErrorPayload reports a rejected event back to its sender.
type ErrorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}
