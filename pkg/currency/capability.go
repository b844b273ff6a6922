package currency

import "github.com/klingnet-chain/monetary-node/pkg/tx"

// flagRule is one entry of the six-flag function table the capability
// validator dispatches over. Each flag carries two rule functions instead
// of a dynamically-dispatched per-type validator, keeping the whole rule
// matrix auditable in one table.
type flagRule struct {
	bit       uint32
	name      string
	onPresent func(c *Currency, t *tx.Transaction, validators uint32, height uint64) error
	onMissing func(c *Currency, t *tx.Transaction, validators uint32, height uint64) error
}

// rules is the closed, fixed-order set of six capability flags. Order is
// normative: the first error encountered during dispatch wins.
var rules = [...]flagRule{
	{
		bit:  Exchangeable,
		name: "exchangeable",
		onPresent: func(c *Currency, t *tx.Transaction, validators uint32, height uint64) error {
			if t.Attachment.Type == tx.AttachmentIssuance {
				if validators&Claimable != 0 {
					return NotValid("exchangeable cannot be claimed")
				}
			}
			return nil
		},
		onMissing: func(c *Currency, t *tx.Transaction, validators uint32, height uint64) error {
			switch {
			case t.Attachment.Type == tx.AttachmentIssuance:
				if validators&Claimable == 0 {
					return NotValid("currency must be exchangeable or claimable")
				}
			case t.Attachment.Type.IsExchange(), t.Attachment.Type == tx.AttachmentPublishOffer:
				return NotValid("not exchangeable")
			}
			return nil
		},
	},
	{
		bit:  Controllable,
		name: "controllable",
		onPresent: func(c *Currency, t *tx.Transaction, validators uint32, height uint64) error {
			switch t.Attachment.Type {
			case tx.AttachmentTransfer:
				if c == nil || (c.AccountID != t.SenderID && c.AccountID != t.RecipientID) {
					return NotValid("transfer restricted to issuer")
				}
			case tx.AttachmentPublishOffer:
				if c == nil || c.AccountID != t.SenderID {
					return NotValid("offer publication restricted to issuer")
				}
			}
			return nil
		},
		onMissing: func(c *Currency, t *tx.Transaction, validators uint32, height uint64) error {
			return nil
		},
	},
	{
		bit:  Reservable,
		name: "reservable",
		onPresent: func(c *Currency, t *tx.Transaction, validators uint32, height uint64) error {
			switch t.Attachment.Type {
			case tx.AttachmentIssuance:
				if t.Attachment.IssuanceHeight <= height {
					return NotCurrentlyValid("issuance height must be in the future")
				}
			case tx.AttachmentReserveIncrease:
				if c != nil && c.IsActive(height) {
					return NotCurrentlyValid("cannot increase reserve for active currency")
				}
			}
			return nil
		},
		onMissing: func(c *Currency, t *tx.Transaction, validators uint32, height uint64) error {
			switch t.Attachment.Type {
			case tx.AttachmentReserveIncrease:
				return NotValid("not reservable")
			case tx.AttachmentIssuance:
				if t.Attachment.IssuanceHeight != 0 {
					return NotValid("issuance height must be zero for a non-reservable currency")
				}
			}
			return nil
		},
	},
	{
		bit:  Claimable,
		name: "claimable",
		onPresent: func(c *Currency, t *tx.Transaction, validators uint32, height uint64) error {
			switch t.Attachment.Type {
			case tx.AttachmentIssuance:
				if validators&Reservable == 0 {
					return NotValid("claimable must be reservable")
				}
				if t.Attachment.CurrentSupply != 0 {
					return NotValid("claimable currency must issue with zero supply")
				}
			case tx.AttachmentReserveClaim:
				if c == nil || !c.IsActive(height) {
					return NotCurrentlyValid("currency not active")
				}
			}
			return nil
		},
		onMissing: func(c *Currency, t *tx.Transaction, validators uint32, height uint64) error {
			if t.Attachment.Type == tx.AttachmentReserveClaim {
				return NotValid("not claimable")
			}
			return nil
		},
	},
	{
		bit:  Mintable,
		name: "mintable",
		onPresent: func(c *Currency, t *tx.Transaction, validators uint32, height uint64) error {
			if t.Attachment.Type == tx.AttachmentIssuance {
				a := t.Attachment
				if !KnownHashFunction(a.Algorithm) {
					return NotValid("unknown mint hash algorithm")
				}
				if !(a.MinDifficulty > 0 && a.MinDifficulty <= a.MaxDifficulty) {
					return NotValid("mint difficulty bounds invalid")
				}
			}
			return nil
		},
		onMissing: func(c *Currency, t *tx.Transaction, validators uint32, height uint64) error {
			if t.Attachment.Type == tx.AttachmentIssuance {
				a := t.Attachment
				if a.MinDifficulty != 0 || a.MaxDifficulty != 0 || a.Algorithm != 0 {
					return NotValid("mint parameters must be zero for a non-mintable currency")
				}
			}
			if t.Attachment.Type == tx.AttachmentMinting {
				return NotValid("currency is not mintable")
			}
			return nil
		},
	},
	{
		bit:  Shuffleable,
		name: "shuffleable",
		onPresent: func(c *Currency, t *tx.Transaction, validators uint32, height uint64) error {
			return NotYetEnabled("shuffling")
		},
		onMissing: func(c *Currency, t *tx.Transaction, validators uint32, height uint64) error {
			return nil
		},
	},
}

// Validator validates transactions against the Monetary System's currency
// capability flags. MonetarySystemBlock gates the feature on globally; the
// Height func supplies the current chain height each Validate call is
// evaluated at.
type Validator struct {
	MonetarySystemBlock uint64
	Height              func() uint64
}

// NewValidator constructs a Validator gated at monetarySystemBlock, using
// heightFn as its current-height source.
func NewValidator(monetarySystemBlock uint64, heightFn func() uint64) *Validator {
	return &Validator{MonetarySystemBlock: monetarySystemBlock, Height: heightFn}
}

// Validate implements spec §4.1's algorithm: height gate, amount gate,
// validator-set computation, then fixed-order dispatch over the six flags.
// The validators set is computed once up front so every rule function in
// the dispatch loop sees a consistent view of it.
func (v *Validator) Validate(typeBits uint32, c *Currency, t *tx.Transaction) error {
	height := v.Height()

	if height < v.MonetarySystemBlock {
		return NotYetEnabled("monetary system not yet active")
	}
	if t.Amount != 0 {
		return NotValid("currency tx amount must be 0")
	}

	validators := typeBits & AllFlags
	if validators == 0 {
		return NotValid("currency type not specified")
	}

	for _, r := range rules {
		var err error
		if validators&r.bit != 0 {
			err = r.onPresent(c, t, validators, height)
		} else {
			err = r.onMissing(c, t, validators, height)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
