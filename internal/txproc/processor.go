// Package txproc implements the transaction processor: the component that
// orchestrates validation, mempool insertion/removal, peer gossip, and
// fork reconciliation behind a single process-wide blockchain lock.
package txproc

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klingnet-chain/monetary-node/internal/clock"
	"github.com/klingnet-chain/monetary-node/internal/eventbus"
	"github.com/klingnet-chain/monetary-node/internal/log"
	"github.com/klingnet-chain/monetary-node/internal/mempool"
	"github.com/klingnet-chain/monetary-node/internal/storage"
	"github.com/klingnet-chain/monetary-node/pkg/crypto"
	"github.com/klingnet-chain/monetary-node/pkg/currency"
	"github.com/klingnet-chain/monetary-node/pkg/tx"
)

// MaxTimestampDriftSeconds bounds how far into the future a transaction's
// timestamp may sit relative to the node's own clock.
const MaxTimestampDriftSeconds = 15

// MaxDeadlineMinutes bounds a transaction's deadline field.
const MaxDeadlineMinutes = 1440

// Ledger is the confirmed-chain collaborator the processor mutates
// speculatively and consults for duplicate/height checks. Implemented by
// txproc/memledger, which both the tests and cmd/monetaryd use.
type Ledger interface {
	// Contains reports whether id is already present in the confirmed chain.
	Contains(id uint64) bool
	// ApplyUnconfirmed speculatively applies tx's effects. false means the
	// transaction conflicts (double-spend / insufficient funds), not an error.
	ApplyUnconfirmed(t *tx.Transaction) (bool, error)
	// Undo reverses a confirmed transaction's effects (used when a block is undone).
	Undo(t *tx.Transaction) error
	// UndoUnconfirmed reverses a speculative apply_unconfirmed.
	UndoUnconfirmed(t *tx.Transaction) error
	// Height returns the current confirmed chain height.
	Height() uint64
	// IsDownloading reports whether the node is still catching up to the
	// network; while true, processing new unconfirmed transactions is premature.
	IsDownloading() bool
}

// Peers is the gossip collaborator: it fans a forward batch out to a subset
// of connected peers. No locks may be held across this call.
type Peers interface {
	SendToSome(batch []*tx.Transaction) error
}

// Processor is the Monetary System's transaction processor (C7 in the
// module's internal numbering). One Processor serializes every mutation
// that must stay consistent with the confirmed ledger behind blockchainMu.
type Processor struct {
	blockchainMu sync.Mutex

	db      storage.DB
	store   *mempool.Store
	local   *mempool.LocalOriginTracker
	bus     *eventbus.Bus
	ledger  Ledger
	peers   Peers
	clock   clock.Clock
	verify   crypto.Verifier
	cap      *currency.Validator
	registry currency.Registry
	naming   currency.NamingRules
	monetarySystemBlock uint64
}

// Config bundles a Processor's collaborators.
type Config struct {
	DB                  storage.DB
	Store               *mempool.Store
	Local               *mempool.LocalOriginTracker
	Bus                 *eventbus.Bus
	Ledger              Ledger
	Peers               Peers
	Clock               clock.Clock
	Verifier            crypto.Verifier
	Capability          *currency.Validator
	Registry            currency.Registry
	Naming              currency.NamingRules
	MonetarySystemBlock uint64
}

// New constructs a Processor from cfg.
func New(cfg Config) *Processor {
	return &Processor{
		db:                  cfg.DB,
		store:               cfg.Store,
		local:               cfg.Local,
		bus:                 cfg.Bus,
		ledger:              cfg.Ledger,
		peers:               cfg.Peers,
		clock:               cfg.Clock,
		verify:              cfg.Verifier,
		cap:                 cfg.Capability,
		registry:            cfg.Registry,
		naming:              cfg.Naming,
		monetarySystemBlock: cfg.MonetarySystemBlock,
	}
}

// Broadcast is the local-origin entry point: verify the transaction's own
// signature, run it through process_transactions, and on acceptance record
// it in the LocalOriginTracker so future peer echoes are suppressed.
func (p *Processor) Broadcast(t *tx.Transaction) error {
	h := t.Hash()
	if !p.verify.Verify(h[:], t.Signature, t.SenderPublicKey) {
		return currency.NotValid("signature")
	}

	accepted := p.ProcessTransactions([]*tx.Transaction{t}, true)
	for _, a := range accepted {
		if a.ID == t.ID {
			p.local.Put(t)
			log.TxProc.Info().Uint64("id", t.ID).Msg("broadcast accepted")
			return nil
		}
	}
	return currency.NotValid("double spending")
}

// ProcessPeerBatch parses a JSON array of transactions received from a
// peer, self-validates each one, and folds the survivors into
// process_transactions. A NotValid parse or validation failure propagates
// so the caller can blacklist the offending peer; NotCurrentlyValid entries
// are silently dropped.
func (p *Processor) ProcessPeerBatch(payload []byte, sendToPeers bool) ([]*tx.Transaction, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, currency.NotValid(fmt.Sprintf("malformed batch: %v", err))
	}

	parsed := make([]*tx.Transaction, 0, len(raw))
	for _, r := range raw {
		t, err := tx.Decode(r)
		if err != nil {
			return nil, currency.NotValid(fmt.Sprintf("malformed transaction: %v", err))
		}
		if err := p.selfValidate(t); err != nil {
			if currency.IsNotCurrentlyValid(err) {
				continue
			}
			return nil, err
		}
		parsed = append(parsed, t)
	}

	accepted := p.ProcessTransactions(parsed, sendToPeers)

	for _, t := range parsed {
		p.local.Remove(t.ID)
	}
	return accepted, nil
}

// selfValidate runs a peer-sourced transaction through the capability and
// naming validators where the attachment is a currency operation.
// Non-currency attachments (plain TRANSFER with no CurrencyID, etc.) skip
// this check entirely.
func (p *Processor) selfValidate(t *tx.Transaction) error {
	if p.cap == nil {
		return nil
	}

	switch t.Attachment.Type {
	case tx.AttachmentIssuance:
		var active []currency.ExistingCurrency
		if p.registry != nil {
			active = p.registry.ActiveCurrencies()
		}
		if err := currency.ValidateNaming(p.naming, t.Attachment.Name, t.Attachment.Code, t.Attachment.Description, active); err != nil {
			return err
		}
		return p.cap.Validate(t.Attachment.CurrencyType, nil, t)

	case tx.AttachmentReserveIncrease, tx.AttachmentReserveClaim, tx.AttachmentMinting,
		tx.AttachmentExchangeBuy, tx.AttachmentExchangeSell, tx.AttachmentPublishOffer:
		if p.registry == nil {
			return nil
		}
		c, ok := p.registry.GetCurrency(t.Attachment.CurrencyID)
		if !ok {
			return currency.NotCurrentlyValid("unknown currency")
		}
		return p.cap.Validate(c.Type, c, t)

	case tx.AttachmentTransfer:
		if t.Attachment.CurrencyID == 0 || p.registry == nil {
			return nil
		}
		c, ok := p.registry.GetCurrency(t.Attachment.CurrencyID)
		if !ok {
			return currency.NotCurrentlyValid("unknown currency")
		}
		return p.cap.Validate(c.Type, c, t)

	default:
		return nil
	}
}

// ProcessTransactions is the core loop: each transaction is processed under
// its own blockchain-locked storage transaction, so a failure partway
// through the batch never rolls back earlier accepted entries.
func (p *Processor) ProcessTransactions(batch []*tx.Transaction, sendToPeers bool) []*tx.Transaction {
	var addedUnconfirmed, addedDoubleSpending, removedFromLocal []*tx.Transaction
	var forward []*tx.Transaction

	for _, t := range batch {
		now := p.clock.Now()
		if t.Timestamp > now+MaxTimestampDriftSeconds ||
			t.Expiration() < now ||
			t.Deadline > MaxDeadlineMinutes ||
			t.Version < 1 {
			continue
		}

		brk, accepted, doubleSpent := p.processOne(t, sendToPeers, &forward)
		if brk {
			break
		}
		if accepted {
			addedUnconfirmed = append(addedUnconfirmed, t)
		}
		if doubleSpent {
			addedDoubleSpending = append(addedDoubleSpending, t)
		}
	}
	_ = removedFromLocal

	if len(forward) > 0 && p.peers != nil {
		if err := p.peers.SendToSome(forward); err != nil {
			log.TxProc.Warn().Err(err).Msg("forwarding unconfirmed transactions failed")
		}
	}

	p.bus.Publish(eventbus.AddedUnconfirmed, addedUnconfirmed)
	p.bus.Publish(eventbus.AddedDoubleSpending, addedDoubleSpending)

	return addedUnconfirmed
}

// processOne handles a single transaction under the blockchain lock. The
// bool results are (shouldBreakBatch, accepted, doubleSpent).
func (p *Processor) processOne(t *tx.Transaction, sendToPeers bool, forward *[]*tx.Transaction) (brk, accepted, doubleSpent bool) {
	p.blockchainMu.Lock()
	defer p.blockchainMu.Unlock()

	if p.ledger.IsDownloading() || p.ledger.Height() < p.monetarySystemBlock {
		return true, false, false
	}

	if p.ledger.Contains(t.ID) {
		return false, false, false
	}
	if inPool, _ := p.store.Contains(t.ID); inPool {
		return false, false, false
	}

	h := t.Hash()
	if !p.verify.Verify(h[:], t.Signature, t.SenderPublicKey) {
		log.TxProc.Debug().Uint64("id", t.ID).Msg("signature verification failed")
		return false, false, false
	}

	err := p.db.WithTransaction(func(stx storage.Tx) error {
		ok, applyErr := p.ledger.ApplyUnconfirmed(t)
		if applyErr != nil {
			return applyErr
		}
		if !ok {
			doubleSpent = true
			return nil
		}

		if sendToPeers {
			if p.local.Contains(t.ID) {
				p.local.Remove(t.ID)
			} else {
				*forward = append(*forward, t)
			}
		}

		if insertErr := p.store.Insert(stx, t); insertErr != nil {
			return insertErr
		}
		accepted = true
		return nil
	})
	if err != nil {
		log.TxProc.Error().Err(err).Uint64("id", t.ID).Msg("process transaction: storage transaction failed")
		accepted = false
		doubleSpent = false
	}
	return false, accepted, doubleSpent
}

// OnBlockApplied removes every transaction in block from the mempool (it is
// now confirmed) and publishes both the confirmed and removed batches.
func (p *Processor) OnBlockApplied(block []*tx.Transaction) error {
	p.blockchainMu.Lock()
	defer p.blockchainMu.Unlock()

	var removed []*tx.Transaction
	err := p.db.WithTransaction(func(stx storage.Tx) error {
		for _, t := range block {
			if inPool, _ := p.store.Contains(t.ID); inPool {
				if err := p.store.Delete(stx, t.ID); err != nil {
					return err
				}
				removed = append(removed, t)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.bus.Publish(eventbus.AddedConfirmed, block)
	p.bus.Publish(eventbus.RemovedUnconfirmed, removed)
	return nil
}

// OnBlockUndone reverses a previously applied block: every transaction is
// handed back to Undo and reinserted into the mempool as unconfirmed again.
func (p *Processor) OnBlockUndone(block []*tx.Transaction) error {
	p.blockchainMu.Lock()
	defer p.blockchainMu.Unlock()

	var added []*tx.Transaction
	err := p.db.WithTransaction(func(stx storage.Tx) error {
		for _, t := range block {
			if err := p.ledger.Undo(t); err != nil {
				return err
			}
			if err := p.store.Insert(stx, t); err != nil {
				return err
			}
			added = append(added, t)
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.bus.Publish(eventbus.AddedUnconfirmed, added)
	return nil
}

// ApplyUnconfirmedBulk re-applies every id's speculative ledger effect
// (used after a reorg brings a fresh set of blocks in); ids that fail to
// re-apply are dropped from the mempool.
func (p *Processor) ApplyUnconfirmedBulk(ids []uint64) error {
	p.blockchainMu.Lock()
	defer p.blockchainMu.Unlock()

	var removed []*tx.Transaction
	err := p.db.WithTransaction(func(stx storage.Tx) error {
		for _, id := range ids {
			t, ok, err := p.store.Get(id)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			applied, err := p.ledger.ApplyUnconfirmed(t)
			if err != nil {
				return err
			}
			if !applied {
				if err := p.store.Delete(stx, id); err != nil {
					return err
				}
				removed = append(removed, t)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.bus.Publish(eventbus.RemovedUnconfirmed, removed)
	return nil
}

// UndoAllUnconfirmed reverses every mempool entry's speculative ledger
// effect without deleting the rows — used right before the ledger replays
// a new set of confirmed blocks. Returns the set of touched ids.
func (p *Processor) UndoAllUnconfirmed() ([]uint64, error) {
	p.blockchainMu.Lock()
	defer p.blockchainMu.Unlock()

	var touched []uint64
	err := p.store.IterAll(func(t *tx.Transaction) error {
		if err := p.ledger.UndoUnconfirmed(t); err != nil {
			return err
		}
		touched = append(touched, t.ID)
		return nil
	})
	return touched, err
}

// RemoveUnconfirmed deletes every transaction in batch from the mempool and
// reverses its speculative ledger effect, all inside one storage
// transaction under the blockchain lock.
func (p *Processor) RemoveUnconfirmed(batch []*tx.Transaction) error {
	p.blockchainMu.Lock()
	defer p.blockchainMu.Unlock()

	var removed []*tx.Transaction
	err := p.db.WithTransaction(func(stx storage.Tx) error {
		for _, t := range batch {
			present, _ := p.store.Contains(t.ID)
			if !present {
				continue
			}
			if err := p.store.Delete(stx, t.ID); err != nil {
				return err
			}
			if err := p.ledger.UndoUnconfirmed(t); err != nil {
				return err
			}
			removed = append(removed, t)
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.bus.Publish(eventbus.RemovedUnconfirmed, removed)
	return nil
}

// SweepExpired deletes every expired mempool entry, undoing each one's
// speculative ledger effect, and publishes the removed batch. Called by the
// ExpirySweeper worker under the blockchain lock.
func (p *Processor) SweepExpired() error {
	p.blockchainMu.Lock()
	defer p.blockchainMu.Unlock()

	var removed []*tx.Transaction
	err := p.db.WithTransaction(func(stx storage.Tx) error {
		expired, err := p.store.SweepExpired(stx, p.clock.Now())
		if err != nil {
			return err
		}
		for _, t := range expired {
			if err := p.ledger.UndoUnconfirmed(t); err != nil {
				return err
			}
		}
		removed = expired
		return nil
	})
	if err != nil {
		return err
	}
	p.bus.Publish(eventbus.RemovedUnconfirmed, removed)
	return nil
}

// LocalOriginSnapshot exposes the tracker snapshot for the Rebroadcaster
// worker without leaking the tracker type itself into internal/workers.
func (p *Processor) LocalOriginSnapshot() []*tx.Transaction {
	return p.local.Snapshot()
}

// RemoveLocalOrigin drops id from the LocalOriginTracker.
func (p *Processor) RemoveLocalOrigin(id uint64) {
	p.local.Remove(id)
}

// SendToPeers forwards batch to a subset of connected peers, outside any
// lock.
func (p *Processor) SendToPeers(batch []*tx.Transaction) error {
	if p.peers == nil || len(batch) == 0 {
		return nil
	}
	return p.peers.SendToSome(batch)
}

// LedgerContains reports whether id is confirmed (used by the
// Rebroadcaster to decide whether a locally-tracked transaction is stale).
func (p *Processor) LedgerContains(id uint64) bool {
	return p.ledger.Contains(id)
}

// Now exposes the processor's clock for workers that need to reason about
// expiration without importing internal/clock directly.
func (p *Processor) Now() int64 {
	return p.clock.Now()
}

// PendingLocalOrigin reports the ids of every transaction this node has
// broadcast locally and is still waiting to see confirmed or echoed back —
// a read-only status query, not part of the core processing path.
func (p *Processor) PendingLocalOrigin() []uint64 {
	snapshot := p.local.Snapshot()
	ids := make([]uint64, len(snapshot))
	for i, t := range snapshot {
		ids[i] = t.ID
	}
	return ids
}
