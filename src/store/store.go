// Package store persists chat documents in BadgerDB. Values are JSON
// documents; keys are prefixed and, for message streams, carry a
// zero-padded nanosecond timestamp so a prefix scan yields chronological
// order without a separate index.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrAlreadyParticipant = errors.New("user is already in the room")
	ErrNotParticipant     = errors.New("user is not a participant")
	ErrAlreadyBlocked     = errors.New("user is already blocked")
)

// unmarshalInto exists so iterator callbacks read as one line.
func unmarshalInto(val []byte, dst any) error {
	return json.Unmarshal(val, dst)
}

// setJSON marshals v and writes it under key within txn.
func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

// getJSON reads key within txn and unmarshals it into dst. Badger's
// ErrKeyNotFound is mapped to ErrNotFound.
func getJSON(txn *badger.Txn, key []byte, dst any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}
