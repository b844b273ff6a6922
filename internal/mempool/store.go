// Package mempool holds unconfirmed transactions waiting for block
// inclusion. It is deliberately storage-shaped: every mutation goes through
// a storage.Tx so the transaction processor can fold mempool writes and
// ledger writes into one atomic unit under the blockchain lock.
package mempool

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/klingnet-chain/monetary-node/internal/storage"
	"github.com/klingnet-chain/monetary-node/pkg/tx"
)

// unconfirmedPrefix namespaces the single unconfirmed_transaction table
// inside the shared key-value store.
var unconfirmedPrefix = []byte("unconfirmed/")

// record is the persisted row shape: id (implicit in the key), expiration,
// and the canonical transaction encoding. Reparsed into a *tx.Transaction
// on every read.
type record struct {
	Expiration int64  `json:"expiration"`
	Bytes      []byte `json:"bytes"`
}

// Store is the persistent keyed set of unconfirmed transactions with an
// expiry sweep. It has no in-memory index: every read goes to storage, and
// every write that must be consistent with the ledger is routed through the
// caller's storage.Tx.
type Store struct {
	db storage.DB
}

// NewStore wraps db as an unconfirmed-transaction store.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

func idKey(id uint64) []byte {
	key := make([]byte, len(unconfirmedPrefix)+8)
	n := copy(key, unconfirmedPrefix)
	binary.BigEndian.PutUint64(key[n:], id)
	return key
}

func encodeRecord(t *tx.Transaction) ([]byte, error) {
	r := record{Expiration: t.Expiration(), Bytes: t.Encode()}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("mempool: encode record: %w", err)
	}
	return data, nil
}

func decodeRecord(data []byte) (*tx.Transaction, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("mempool: corrupted row: %w", err)
	}
	t, err := tx.Decode(r.Bytes)
	if err != nil {
		return nil, fmt.Errorf("mempool: corrupted row: %w", err)
	}
	return t, nil
}

// Insert upserts t by id. Must be called inside a storage transaction so it
// composes atomically with whatever ledger mutation accompanies it.
func (s *Store) Insert(stx storage.Tx, t *tx.Transaction) error {
	data, err := encodeRecord(t)
	if err != nil {
		return err
	}
	return stx.Put(idKey(t.ID), data)
}

// Delete removes the entry for id, if present.
func (s *Store) Delete(stx storage.Tx, id uint64) error {
	return stx.Delete(idKey(id))
}

// Get fetches the transaction with the given id. A read-only query: it does
// not require the blockchain lock or a storage transaction, and observes
// whatever snapshot the storage layer exposes.
func (s *Store) Get(id uint64) (*tx.Transaction, bool, error) {
	data, err := s.db.Get(idKey(id))
	if err != nil {
		return nil, false, nil
	}
	t, err := decodeRecord(data)
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

// Contains reports whether id is present in the mempool.
func (s *Store) Contains(id uint64) (bool, error) {
	return s.db.Has(idKey(id))
}

// IterAll visits every mempool entry in key order. fn's error, if non-nil,
// stops iteration and is returned to the caller.
func (s *Store) IterAll(fn func(*tx.Transaction) error) error {
	return s.db.ForEach(unconfirmedPrefix, func(_ []byte, value []byte) error {
		t, err := decodeRecord(value)
		if err != nil {
			return err
		}
		return fn(t)
	})
}

// SweepExpired deletes every row with expiration < now inside a single
// storage transaction and returns the removed entries. Must run inside a
// storage transaction already opened by the caller (the ExpirySweeper
// worker, under the blockchain lock).
func (s *Store) SweepExpired(stx storage.Tx, now int64) ([]*tx.Transaction, error) {
	var expired []*tx.Transaction
	var expiredIDs [][]byte

	err := stx.ForEach(unconfirmedPrefix, func(key []byte, value []byte) error {
		t, err := decodeRecord(value)
		if err != nil {
			return err
		}
		if t.Expiration() < now {
			expired = append(expired, t)
			k := make([]byte, len(key))
			copy(k, key)
			expiredIDs = append(expiredIDs, k)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, k := range expiredIDs {
		if err := stx.Delete(k); err != nil {
			return nil, err
		}
	}
	return expired, nil
}

// Rollback is a no-op: the mempool is not height-versioned.
func (s *Store) Rollback(height uint64) error {
	return nil
}
