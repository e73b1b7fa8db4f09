package store

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Block records that UserID blocked BlockedUserID. The pair is unique.
type Block struct {
	UserID        string    `json:"userId"`
	BlockedUserID string    `json:"blockedUserId"`
	CreatedAt     time.Time `json:"createdAt"`
}

type BlockRepository struct {
	db *badger.DB
}

func NewBlockRepository(db *badger.DB) BlockRepository {
	return BlockRepository{db: db}
}

func blockKey(userID, blockedID string) []byte {
	return []byte("block:" + userID + ":" + blockedID)
}

func (r BlockRepository) CreateBlock(userID, blockedID string) (Block, error) {
	b := Block{UserID: userID, BlockedUserID: blockedID, CreatedAt: time.Now().UTC()}
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(blockKey(userID, blockedID)); err == nil {
			return ErrAlreadyBlocked
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return setJSON(txn, blockKey(userID, blockedID), b)
	})
	if err != nil {
		return Block{}, err
	}
	return b, nil
}

func (r BlockRepository) DeleteBlock(userID, blockedID string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(blockKey(userID, blockedID)); err != nil {
			return ErrNotFound
		}
		return txn.Delete(blockKey(userID, blockedID))
	})
}

// IsBlocked reports whether userID has blocked blockedID.
func (r BlockRepository) IsBlocked(userID, blockedID string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(blockKey(userID, blockedID))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// BlocksOf returns every block created by the user.
func (r BlockRepository) BlocksOf(userID string) ([]Block, error) {
	var blocks []Block
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("block:" + userID + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var b Block
			err := it.Item().Value(func(val []byte) error {
				return unmarshalInto(val, &b)
			})
			if err != nil {
				return err
			}
			blocks = append(blocks, b)
		}
		return nil
	})
	return blocks, err
}
