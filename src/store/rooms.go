package store

import (
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Room is the stored group-chat document. Participants is an unordered
// set of user ids; the creator is always a participant.
type Room struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	CreatedBy    string    `json:"createdBy"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasParticipant reports whether userID belongs to the room.
func (r Room) HasParticipant(userID string) bool {
	return lo.Contains(r.Participants, userID)
}

type RoomRepository struct {
	db *badger.DB
}

func NewRoomRepository(db *badger.DB) RoomRepository {
	return RoomRepository{db: db}
}

func roomKey(id string) []byte { return []byte("room:" + id) }

func (r RoomRepository) CreateRoom(name, description, creatorID string) (Room, error) {
	room := Room{
		ID:           uuid.New().String(),
		Name:         name,
		Description:  description,
		CreatedBy:    creatorID,
		Participants: []string{creatorID},
		CreatedAt:    time.Now().UTC(),
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, roomKey(room.ID), room)
	})
	if err != nil {
		return Room{}, err
	}
	return room, nil
}

func (r RoomRepository) GetRoom(id string) (Room, error) {
	var room Room
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, roomKey(id), &room)
	})
	return room, err
}

// RoomsFor returns every room the user participates in.
func (r RoomRepository) RoomsFor(userID string) ([]Room, error) {
	var rooms []Room
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("room:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var room Room
			err := it.Item().Value(func(val []byte) error {
				return unmarshalInto(val, &room)
			})
			if err != nil {
				return err
			}
			if room.HasParticipant(userID) {
				rooms = append(rooms, room)
			}
		}
		return nil
	})
	return rooms, err
}

// Rename updates the room name and returns the updated document.
func (r RoomRepository) Rename(id, name string) (Room, error) {
	var room Room
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, roomKey(id), &room); err != nil {
			return err
		}
		room.Name = name
		return setJSON(txn, roomKey(id), room)
	})
	return room, err
}

func (r RoomRepository) DeleteRoom(id string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(roomKey(id)); err != nil {
			return ErrNotFound
		}
		return txn.Delete(roomKey(id))
	})
}

// AddParticipant inserts userID into the participant set.
func (r RoomRepository) AddParticipant(id, userID string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		var room Room
		if err := getJSON(txn, roomKey(id), &room); err != nil {
			return err
		}
		if room.HasParticipant(userID) {
			return ErrAlreadyParticipant
		}
		room.Participants = append(room.Participants, userID)
		return setJSON(txn, roomKey(id), room)
	})
}

// RemoveParticipant drops userID from the participant set.
func (r RoomRepository) RemoveParticipant(id, userID string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		var room Room
		if err := getJSON(txn, roomKey(id), &room); err != nil {
			return err
		}
		if !room.HasParticipant(userID) {
			return ErrNotParticipant
		}
		room.Participants = lo.Without(room.Participants, userID)
		return setJSON(txn, roomKey(id), room)
	})
}
