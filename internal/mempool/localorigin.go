package mempool

import (
	"sync"

	"github.com/klingnet-chain/monetary-node/pkg/tx"
)

// LocalOriginTracker is a concurrent id → Transaction map of transactions
// this node itself broadcast. It is used only for gossip suppression (don't
// re-forward a transaction a peer echoes back) and rebroadcast; it never
// influences validation outcomes.
type LocalOriginTracker struct {
	mu      sync.RWMutex
	entries map[uint64]*tx.Transaction
}

// NewLocalOriginTracker creates an empty tracker.
func NewLocalOriginTracker() *LocalOriginTracker {
	return &LocalOriginTracker{entries: make(map[uint64]*tx.Transaction)}
}

// Put records t as locally originated.
func (l *LocalOriginTracker) Put(t *tx.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[t.ID] = t
}

// Remove drops id from the tracker, if present.
func (l *LocalOriginTracker) Remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, id)
}

// Contains reports whether id is tracked as locally originated.
func (l *LocalOriginTracker) Contains(id uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[id]
	return ok
}

// Snapshot returns a point-in-time copy of all tracked transactions, safe
// to range over without holding the tracker's lock (used by the
// Rebroadcaster worker, which must not hold locks during peer I/O).
func (l *LocalOriginTracker) Snapshot() []*tx.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*tx.Transaction, 0, len(l.entries))
	for _, t := range l.entries {
		out = append(out, t)
	}
	return out
}
