package tx

import "fmt"

// AttachmentType discriminates the Monetary System transaction subtypes the
// capability validator dispatches on. The core does not specify a full
// transaction type registry (see spec Non-goals) — only the subset the
// validator and mempool need to discriminate.
type AttachmentType byte

const (
	AttachmentNone AttachmentType = iota
	AttachmentIssuance
	AttachmentTransfer
	AttachmentReserveIncrease
	AttachmentReserveClaim
	AttachmentMinting
	AttachmentExchangeBuy
	AttachmentExchangeSell
	AttachmentPublishOffer
)

// String returns a lowercase label, used in log fields and error messages.
func (t AttachmentType) String() string {
	switch t {
	case AttachmentNone:
		return "none"
	case AttachmentIssuance:
		return "issuance"
	case AttachmentTransfer:
		return "transfer"
	case AttachmentReserveIncrease:
		return "reserve_increase"
	case AttachmentReserveClaim:
		return "reserve_claim"
	case AttachmentMinting:
		return "minting"
	case AttachmentExchangeBuy:
		return "exchange_buy"
	case AttachmentExchangeSell:
		return "exchange_sell"
	case AttachmentPublishOffer:
		return "publish_offer"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// IsExchange reports whether t is one of the two exchange order subtypes.
func (t AttachmentType) IsExchange() bool {
	return t == AttachmentExchangeBuy || t == AttachmentExchangeSell
}

// Attachment is the tagged payload carried by a Monetary System transaction.
// Only the fields the capability validator (pkg/currency) consumes are
// modeled; a full attachment registry is explicitly out of scope.
type Attachment struct {
	Type AttachmentType `json:"type"`

	// CurrencyID identifies the currency this attachment operates on.
	// Zero for subtypes that create a new currency (ISSUANCE).
	CurrencyID uint64 `json:"currency_id,omitempty"`

	// ISSUANCE fields.
	Name           string `json:"name,omitempty"`
	Code           string `json:"code,omitempty"`
	Description    string `json:"description,omitempty"`
	CurrencyType   uint32 `json:"currency_type,omitempty"`   // capability bitmask
	IssuanceHeight uint64 `json:"issuance_height,omitempty"` // RESERVABLE activation height
	CurrentSupply  uint64 `json:"current_supply,omitempty"`  // must be 0 when CLAIMABLE is present

	// MINTABLE / MINTING fields.
	Algorithm     byte   `json:"algorithm,omitempty"`      // hash function selector, see pkg/currency
	MinDifficulty uint64 `json:"min_difficulty,omitempty"` // 0 when currency is not MINTABLE
	MaxDifficulty uint64 `json:"max_difficulty,omitempty"`
	MintNonce     uint64 `json:"mint_nonce,omitempty"`
	MintUnits     uint64 `json:"mint_units,omitempty"`

	// RESERVE_INCREASE / RESERVE_CLAIM / TRANSFER fields.
	Units uint64 `json:"units,omitempty"`

	// EXCHANGE_BUY / EXCHANGE_SELL / PUBLISH_OFFER fields.
	RateNQT     uint64 `json:"rate_nqt,omitempty"`
	BuyRateNQT  uint64 `json:"buy_rate_nqt,omitempty"`
	SellRateNQT uint64 `json:"sell_rate_nqt,omitempty"`
}
