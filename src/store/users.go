package store

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// User is the stored account document.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

func userIDKey(id string) []byte   { return []byte("user:id:" + id) }
func userEmailKey(e string) []byte { return []byte("user:email:" + e) }

// CreateUser persists a new user. Email is the uniqueness key; the
// document is written under both the id and the email keys so lookups by
// either are a single get.
func (r UserRepository) CreateUser(username, email, passwordHash string) (User, error) {
	u := User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userEmailKey(email)); err == nil {
			return ErrUserAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := setJSON(txn, userEmailKey(email), u); err != nil {
			return err
		}
		return setJSON(txn, userIDKey(u.ID), u)
	})
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r UserRepository) GetByEmail(email string) (User, error) {
	var u User
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userEmailKey(email), &u)
	})
	return u, err
}

func (r UserRepository) GetByID(id string) (User, error) {
	var u User
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userIDKey(id), &u)
	})
	return u, err
}

// ListUsers returns every registered user, for the user directory.
func (r UserRepository) ListUsers() ([]User, error) {
	var users []User
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:id:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var u User
			err := it.Item().Value(func(val []byte) error {
				return unmarshalInto(val, &u)
			})
			if err != nil {
				return err
			}
			users = append(users, u)
		}
		return nil
	})
	return users, err
}
