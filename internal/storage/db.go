// Package storage provides database abstractions.
package storage

// Tx is a storage transaction. All operations performed against a Tx are
// applied atomically when the callback passed to DB.WithTransaction returns
// nil, and discarded entirely if it returns an error.
type Tx interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	// ForEach iterates over all keys with the given prefix within the
	// transaction's view. The callback receives a copy of the key; the value
	// slice is only valid until fn returns.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
}

// DB is the interface for key-value storage.
type DB interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	// ForEach iterates over all keys with the given prefix.
	// The callback receives a copy of the key; the value slice is only valid
	// until fn returns.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error

	// WithTransaction runs fn within a single atomic storage transaction.
	// The transaction commits if fn returns nil, and rolls back (leaving
	// the store unchanged) if fn returns an error; that error is then
	// returned to the caller of WithTransaction unchanged. The transaction
	// processor pairs this with a process-wide lock so that the combination
	// behaves as a single serialized unit of work per mempool operation.
	WithTransaction(fn func(Tx) error) error

	Close() error
}

// Batch accumulates writes for atomic application via Commit.
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Commit() error
}

// Batcher is implemented by DB backends that support batched writes.
type Batcher interface {
	NewBatch() Batch
}
