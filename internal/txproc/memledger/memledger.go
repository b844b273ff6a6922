// Package memledger is a small in-memory reference ledger implementing both
// txproc.Ledger and currency.Registry: an account balance map plus a
// currency table, enough to exercise double-spend detection and
// capability/naming validation without a real block engine. The tests use
// it, and cmd/monetaryd runs on it as its only ledger.
package memledger

import (
	"fmt"
	"sync"

	"github.com/klingnet-chain/monetary-node/pkg/currency"
	"github.com/klingnet-chain/monetary-node/pkg/tx"
)

// Ledger is a minimal account-based reference ledger.
type Ledger struct {
	mu          sync.Mutex
	balances    map[uint64]int64
	confirmed   map[uint64]bool
	currencies  map[uint64]*currency.Currency
	height      uint64
	downloading bool
}

// New creates an empty ledger with the given starting balances.
func New(balances map[uint64]uint64) *Ledger {
	l := &Ledger{
		balances:   make(map[uint64]int64),
		confirmed:  make(map[uint64]bool),
		currencies: make(map[uint64]*currency.Currency),
	}
	for acct, bal := range balances {
		l.balances[acct] = int64(bal)
	}
	return l
}

// SetHeight pins the ledger's reported height.
func (l *Ledger) SetHeight(h uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.height = h
}

// SetDownloading toggles the IsDownloading() gate.
func (l *Ledger) SetDownloading(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.downloading = v
}

// AddCurrency registers c for Registry lookups.
func (l *Ledger) AddCurrency(c *currency.Currency) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.currencies[c.ID] = c
}

// Balance returns an account's current balance.
func (l *Ledger) Balance(account uint64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// Contains reports whether id has already been confirmed.
func (l *Ledger) Contains(id uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.confirmed[id]
}

// ApplyUnconfirmed debits the sender and credits the recipient by
// Amount+Fee / Amount respectively. Returns false (not an error) if the
// sender's balance would go negative — a double-spend / insufficient-funds
// outcome the processor treats distinctly from a hard failure.
func (l *Ledger) ApplyUnconfirmed(t *tx.Transaction) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := int64(t.Amount + t.Fee)
	if l.balances[t.SenderID] < total {
		return false, nil
	}
	l.balances[t.SenderID] -= total
	l.balances[t.RecipientID] += int64(t.Amount)
	return true, nil
}

// UndoUnconfirmed reverses a prior ApplyUnconfirmed.
func (l *Ledger) UndoUnconfirmed(t *tx.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := int64(t.Amount + t.Fee)
	l.balances[t.SenderID] += total
	l.balances[t.RecipientID] -= int64(t.Amount)
	return nil
}

// Undo reverses a confirmed transaction (same bookkeeping as
// UndoUnconfirmed; confirmation vs. speculative state is tracked
// separately via the confirmed set).
func (l *Ledger) Undo(t *tx.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.confirmed, t.ID)
	total := int64(t.Amount + t.Fee)
	l.balances[t.SenderID] += total
	l.balances[t.RecipientID] -= int64(t.Amount)
	return nil
}

// Confirm marks id as part of the confirmed chain (test helper; a real
// ledger would do this as part of block application).
func (l *Ledger) Confirm(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.confirmed[id] = true
}

// Height returns the ledger's current height.
func (l *Ledger) Height() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.height
}

// IsDownloading reports the ledger's download-in-progress flag.
func (l *Ledger) IsDownloading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.downloading
}

// GetCurrency implements currency.Registry.
func (l *Ledger) GetCurrency(id uint64) (*currency.Currency, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.currencies[id]
	return c, ok
}

// ActiveCurrencies implements currency.Registry.
func (l *Ledger) ActiveCurrencies() []currency.ExistingCurrency {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]currency.ExistingCurrency, 0, len(l.currencies))
	for _, c := range l.currencies {
		out = append(out, currency.ExistingCurrency{Name: c.Name, Code: c.Code})
	}
	return out
}

// String renders the ledger's balances, useful in test failure messages.
func (l *Ledger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fmt.Sprintf("memledger{height=%d, accounts=%d}", l.height, len(l.balances))
}
