package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStateStore adapts the embedded BadgerDB to the StateStore contract.
//
// Expiry is lazily observed: badger checks the entry's ExpiresAt at read
// time, so an expired-but-not-yet-reaped record already reads as absent.
// No live/dead flag is kept above this layer.
type BadgerStateStore struct {
	db *badger.DB
}

func NewBadgerStateStore(db *badger.DB) *BadgerStateStore {
	return &BadgerStateStore{db: db}
}

func (s *BadgerStateStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Put writes the value, optionally with a TTL. Badger tracks expiry with
// second granularity, which is plenty for a 15-minute presence window.
func (s *BadgerStateStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}
