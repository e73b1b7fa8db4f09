package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// DirectMessage is a stored one-to-one message with a single read flag.
type DirectMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
}

type DirectMessageRepository struct {
	db *badger.DB
}

func NewDirectMessageRepository(db *badger.DB) DirectMessageRepository {
	return DirectMessageRepository{db: db}
}

// convKey orders the pair lexicographically so both directions of a
// conversation share one key prefix.
func convKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

func dmKey(conv string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("dm:%s:%019d:%s", conv, at.UnixNano(), id))
}

func unreadKey(receiverID, senderID string) []byte {
	return []byte("unread:" + receiverID + ":" + senderID)
}

// StoreDirectMessage persists the message and bumps the receiver's unread
// counter for this sender in the same transaction.
func (r DirectMessageRepository) StoreDirectMessage(senderID, receiverID, content string) (DirectMessage, error) {
	dm := DirectMessage{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	conv := convKey(senderID, receiverID)

	err := r.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, dmKey(conv, dm.CreatedAt, dm.ID), dm); err != nil {
			return err
		}
		count, err := readCounter(txn, unreadKey(receiverID, senderID))
		if err != nil {
			return err
		}
		return txn.Set(unreadKey(receiverID, senderID),
			[]byte(strconv.Itoa(count+1)))
	})
	if err != nil {
		return DirectMessage{}, err
	}
	return dm, nil
}

// Conversation returns all messages between the two users, both
// directions, in chronological order.
func (r DirectMessageRepository) Conversation(userA, userB string) ([]DirectMessage, error) {
	var messages []DirectMessage
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("dm:" + convKey(userA, userB) + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var dm DirectMessage
			err := it.Item().Value(func(val []byte) error {
				return unmarshalInto(val, &dm)
			})
			if err != nil {
				return err
			}
			messages = append(messages, dm)
		}
		return nil
	})
	return messages, err
}

// MarkConversationRead flags every unread message from senderID to
// receiverID as read and clears the unread counter.
func (r DirectMessageRepository) MarkConversationRead(senderID, receiverID string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		prefix := []byte("dm:" + convKey(senderID, receiverID) + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		type pending struct {
			key []byte
			dm  DirectMessage
		}
		var updates []pending
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var dm DirectMessage
			err := it.Item().Value(func(val []byte) error {
				return unmarshalInto(val, &dm)
			})
			if err != nil {
				return err
			}
			if dm.SenderID == senderID && dm.ReceiverID == receiverID && !dm.Read {
				dm.Read = true
				updates = append(updates, pending{key: it.Item().KeyCopy(nil), dm: dm})
			}
		}
		for _, p := range updates {
			if err := setJSON(txn, p.key, p.dm); err != nil {
				return err
			}
		}
		return txn.Delete(unreadKey(receiverID, senderID))
	})
}

// UnreadCounts returns senderID -> unread count for the receiver.
func (r DirectMessageRepository) UnreadCounts(receiverID string) (map[string]int, error) {
	counts := make(map[string]int)
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("unread:" + receiverID + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			senderID := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
			err := it.Item().Value(func(val []byte) error {
				n, err := strconv.Atoi(string(val))
				if err != nil {
					return err
				}
				if n > 0 {
					counts[senderID] = n
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return counts, err
}

func readCounter(txn *badger.Txn, key []byte) (int, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var count int
	err = item.Value(func(val []byte) error {
		count, err = strconv.Atoi(string(val))
		return err
	})
	return count, err
}
