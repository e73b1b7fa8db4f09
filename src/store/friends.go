package store

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Friendship statuses.
const (
	FriendStatusPending  = "pending"
	FriendStatusAccepted = "accepted"
	FriendStatusRejected = "rejected"
	FriendStatusBlocked  = "blocked"
)

// Friend is one direction of a friendship; direct chats create both
// directions at once.
type Friend struct {
	UserID    string    `json:"userId"`
	FriendID  string    `json:"friendId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type FriendRepository struct {
	db *badger.DB
}

func NewFriendRepository(db *badger.DB) FriendRepository {
	return FriendRepository{db: db}
}

func friendKey(userID, friendID string) []byte {
	return []byte("friend:" + userID + ":" + friendID)
}

// CreateFriendship writes both directions as accepted. If a friendship
// already exists in either direction it is returned unchanged, so opening
// the same direct chat twice is idempotent.
func (r FriendRepository) CreateFriendship(userID, friendID string) (Friend, bool, error) {
	if existing, err := r.FriendshipBetween(userID, friendID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Friend{}, false, err
	}

	now := time.Now().UTC()
	forward := Friend{UserID: userID, FriendID: friendID, Status: FriendStatusAccepted, CreatedAt: now}
	backward := Friend{UserID: friendID, FriendID: userID, Status: FriendStatusAccepted, CreatedAt: now}

	err := r.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, friendKey(userID, friendID), forward); err != nil {
			return err
		}
		return setJSON(txn, friendKey(friendID, userID), backward)
	})
	if err != nil {
		return Friend{}, false, err
	}
	return forward, true, nil
}

// FriendshipBetween returns the friendship in either direction.
func (r FriendRepository) FriendshipBetween(userID, friendID string) (Friend, error) {
	var f Friend
	err := r.db.View(func(txn *badger.Txn) error {
		if err := getJSON(txn, friendKey(userID, friendID), &f); !errors.Is(err, ErrNotFound) {
			return err
		}
		return getJSON(txn, friendKey(friendID, userID), &f)
	})
	return f, err
}

// FriendsOf returns the user's accepted friendships.
func (r FriendRepository) FriendsOf(userID string) ([]Friend, error) {
	var friends []Friend
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("friend:" + userID + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var f Friend
			err := it.Item().Value(func(val []byte) error {
				return unmarshalInto(val, &f)
			})
			if err != nil {
				return err
			}
			if f.Status == FriendStatusAccepted {
				friends = append(friends, f)
			}
		}
		return nil
	})
	return friends, err
}
