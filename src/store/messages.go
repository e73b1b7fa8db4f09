package store

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Message types. System messages have no meaningful sender.
const (
	MessageTypeUser   = "user"
	MessageTypeSystem = "system"
)

// Message is a stored room message.
type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId,omitempty"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

type MessageRepository struct {
	db *badger.DB
}

func NewMessageRepository(db *badger.DB) MessageRepository {
	return MessageRepository{db: db}
}

// msgKey is "msg:{roomId}:{timestamp_padded}:{uuid}". The 19-digit
// zero-padded nanosecond timestamp makes lexicographic order match
// chronological order; the uuid disconnects collisions when two messages
// land on the same nanosecond.
func msgKey(roomID string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", roomID, at.UnixNano(), id))
}

// StoreMessage persists a room message and returns the stored document.
func (r MessageRepository) StoreMessage(roomID, senderID, content, msgType string) (Message, error) {
	if msgType == "" {
		msgType = MessageTypeUser
	}
	m := Message{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		Type:      msgType,
		CreatedAt: time.Now().UTC(),
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, msgKey(roomID, m.CreatedAt, m.ID), m)
	})
	if err != nil {
		return Message{}, err
	}
	return m, nil
}

// RoomMessages returns the room's messages in chronological order via a
// forward prefix scan.
func (r MessageRepository) RoomMessages(roomID string) ([]Message, error) {
	var messages []Message
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:" + roomID + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var m Message
			err := it.Item().Value(func(val []byte) error {
				return unmarshalInto(val, &m)
			})
			if err != nil {
				return err
			}
			messages = append(messages, m)
		}
		return nil
	})
	return messages, err
}

// DeleteRoomMessages removes every message of a room, used when the room
// itself is deleted.
func (r MessageRepository) DeleteRoomMessages(roomID string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		prefix := []byte("msg:" + roomID + ":")
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
