// Package eventbus is a small typed fan-out for mempool and ledger
// mutations. The transaction processor publishes batches after a storage
// transaction commits; listeners (RPC push, metrics, tests) subscribe per
// event kind.
package eventbus

import (
	"sync"

	"github.com/klingnet-chain/monetary-node/internal/log"
	"github.com/klingnet-chain/monetary-node/pkg/tx"
)

// Kind identifies one of the four mempool event kinds.
type Kind int

const (
	// AddedUnconfirmed fires when transactions enter the mempool.
	AddedUnconfirmed Kind = iota
	// RemovedUnconfirmed fires when transactions leave the mempool
	// (confirmed, expired, or explicitly removed).
	RemovedUnconfirmed
	// AddedConfirmed fires when a block's transactions are applied.
	AddedConfirmed
	// AddedDoubleSpending fires when a transaction fails apply_unconfirmed.
	AddedDoubleSpending
)

func (k Kind) String() string {
	switch k {
	case AddedUnconfirmed:
		return "added_unconfirmed"
	case RemovedUnconfirmed:
		return "removed_unconfirmed"
	case AddedConfirmed:
		return "added_confirmed"
	case AddedDoubleSpending:
		return "added_double_spending"
	default:
		return "unknown"
	}
}

// Listener receives a non-empty batch for one event kind.
type Listener func(batch []*tx.Transaction)

// Bus is a synchronous, typed event fan-out. Subscribers are invoked on the
// calling goroutine, after the triggering storage transaction has already
// committed. A listener's mistake (panic or otherwise) is isolated: logged,
// never propagated to the publisher.
type Bus struct {
	mu        sync.RWMutex
	listeners map[Kind][]Listener
}

// New creates an empty event bus.
func New() *Bus {
	return &Bus{listeners: make(map[Kind][]Listener)}
}

// Subscribe registers fn to be called for every batch published under kind.
// Subscribe is copy-on-write: publishing concurrently with a Subscribe call
// never observes a partially updated listener list.
func (b *Bus) Subscribe(kind Kind, fn Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	existing := b.listeners[kind]
	next := make([]Listener, len(existing)+1)
	copy(next, existing)
	next[len(existing)] = fn
	b.listeners[kind] = next
}

// Publish notifies every listener of kind with batch. Empty batches are not
// emitted — per-listener failures (panics included) are logged and do not
// stop delivery to the remaining listeners.
func (b *Bus) Publish(kind Kind, batch []*tx.Transaction) {
	if len(batch) == 0 {
		return
	}
	b.mu.RLock()
	listeners := b.listeners[kind]
	b.mu.RUnlock()

	for _, fn := range listeners {
		b.dispatch(kind, fn, batch)
	}
}

func (b *Bus) dispatch(kind Kind, fn Listener, batch []*tx.Transaction) {
	defer func() {
		if r := recover(); r != nil {
			log.EventBus.Error().
				Str("event", kind.String()).
				Interface("panic", r).
				Msg("eventbus: listener panicked, isolating")
		}
	}()
	fn(batch)
}
