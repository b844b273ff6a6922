package storage

import (
	"errors"
	"strings"
	"sync"
)

// MemoryDB implements DB using an in-memory map. Safe for concurrent use;
// primarily intended for tests.
type MemoryDB struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory creates a new in-memory database.
func NewMemory() *MemoryDB {
	return &MemoryDB{
		data: make(map[string][]byte),
	}
}

// Get retrieves a value by key.
func (m *MemoryDB) Get(key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, errors.New("key not found")
	}
	return v, nil
}

// Put stores a key-value pair.
func (m *MemoryDB) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = value
	return nil
}

// Delete removes a key.
func (m *MemoryDB) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

// Has checks if a key exists.
func (m *MemoryDB) Has(key []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

// ForEach iterates over all keys with the given prefix.
func (m *MemoryDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	m.mu.Lock()
	p := string(prefix)
	snapshot := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		if strings.HasPrefix(k, p) {
			snapshot[k] = v
		}
	}
	m.mu.Unlock()

	for k, v := range snapshot {
		if err := fn([]byte(k), v); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (m *MemoryDB) Close() error {
	return nil
}

// memoryTx stages writes/deletes against a MemoryDB snapshot so that an
// error returned from the WithTransaction callback leaves the store
// untouched.
type memoryTx struct {
	db      *MemoryDB
	base    map[string][]byte
	deleted map[string]bool
}

func (t *memoryTx) Get(key []byte) ([]byte, error) {
	k := string(key)
	if t.deleted[k] {
		return nil, errors.New("key not found")
	}
	v, ok := t.base[k]
	if !ok {
		return nil, errors.New("key not found")
	}
	return v, nil
}

func (t *memoryTx) Put(key, value []byte) error {
	k := string(key)
	delete(t.deleted, k)
	t.base[k] = value
	return nil
}

func (t *memoryTx) Delete(key []byte) error {
	k := string(key)
	delete(t.base, k)
	t.deleted[k] = true
	return nil
}

func (t *memoryTx) Has(key []byte) (bool, error) {
	k := string(key)
	if t.deleted[k] {
		return false, nil
	}
	_, ok := t.base[k]
	return ok, nil
}

func (t *memoryTx) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	p := string(prefix)
	for k, v := range t.base {
		if t.deleted[k] {
			continue
		}
		if strings.HasPrefix(k, p) {
			if err := fn([]byte(k), v); err != nil {
				return err
			}
		}
	}
	return nil
}

// WithTransaction runs fn against a private copy of the store, committing
// the mutated copy back only if fn returns nil.
func (m *MemoryDB) WithTransaction(fn func(Tx) error) error {
	m.mu.Lock()
	staged := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		staged[k] = v
	}
	m.mu.Unlock()

	tx := &memoryTx{db: m, base: staged, deleted: make(map[string]bool)}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	m.data = staged
	m.mu.Unlock()
	return nil
}
