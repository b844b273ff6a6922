package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/klingnet-chain/monetary-node/pkg/crypto"
	"github.com/klingnet-chain/monetary-node/pkg/types"
)

// =============================================================================
// Protocol Rules (immutable, defined in genesis)
// These MUST match across all nodes validating the same Monetary System, or
// transactions accepted by one node will be rejected by another.
// =============================================================================

// Capability flags. A currency's Type field is a bitwise OR of these, read
// by the capability validator's function table to decide which checks apply
// to an operation on that currency.
const (
	CapabilityExchangeable uint32 = 1 << iota // may be traded on the built-in exchange
	CapabilityControllable                     // transfers and offers restricted to the issuer
	CapabilityReservable                       // reserve built up before activation at IssuanceHeight
	CapabilityClaimable                        // reserve claimable once active; needs Reservable, excludes Exchangeable
	CapabilityMintable                         // supply grows by proof-of-work mints within difficulty bounds
	CapabilityShuffleable                      // reserved; always rejected as not yet enabled
)

// AllCapabilities is the bitmask of every currently-defined capability flag.
// No code checks Type values against it; pkg/currency's Validator masks Type
// with its own AllFlags, so bits outside the mask are ignored.
const AllCapabilities = CapabilityExchangeable | CapabilityControllable |
	CapabilityReservable | CapabilityClaimable | CapabilityMintable | CapabilityShuffleable

// Currency naming rules.
const (
	MinCurrencyNameLength       = 3
	MaxCurrencyNameLength       = 10
	CurrencyCodeLength          = 3 // |code| == CurrencyCodeLength, exact
	MaxCurrencyDescriptionLength = 1000
)

// CurrencyAlphabet is the permitted lowercase+digit character set for a
// normalized (lowercased) currency name.
const CurrencyAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// AllowedCurrencyCodeLetters is the permitted uppercase character set for a
// currency code.
const AllowedCurrencyCodeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// currencyCodePattern mirrors AllowedCurrencyCodeLetters as a regexp.
var currencyCodePattern = regexp.MustCompile(`^[A-Z]+$`)

// ValidCurrencyCode reports whether code satisfies the naming protocol rule:
// exact length and uppercase-only alphabet.
func ValidCurrencyCode(code string) bool {
	if len(code) != CurrencyCodeLength {
		return false
	}
	return currencyCodePattern.MatchString(code)
}

// Denomination constants. 1 unit = 10^8 base QNT, matching the fixed-point
// convention used for amounts, fees and reserves throughout the wire format.
const (
	Decimals  = 8
	OneUnit   = 100_000_000
	MilliUnit = 100_000
)

// IssuanceFee is the minimum fee (in base QNT of the native currency) an
// ISSUANCE transaction must pay.
const IssuanceFee = 25 * OneUnit

// MinReservePerUnit is the minimum amount of native currency an issuer must
// reserve for every unit of a RESERVABLE currency it creates.
const MinReservePerUnit = 1

// MaxCurrenciesPerIssuer caps the number of distinct currencies a single
// account may issue, bounding mempool/ledger growth from a single actor.
const MaxCurrenciesPerIssuer = 255

// MaxTransactionAttachmentBytes bounds the size of an attachment payload
// (issuance metadata, exchange order parameters, mint instructions, ...).
const MaxTransactionAttachmentBytes = 1024

// Genesis holds genesis configuration and protocol rules for the Monetary
// System. Unlike block-producing consensus, there is no genesis block here:
// Genesis identifies the network a mempool/gossip peer belongs to and pins
// the protocol rule values every node must agree on to interoperate.
type Genesis struct {
	// Network identity
	ChainID   string `json:"chain_id"`
	ChainName string `json:"chain_name"`

	Timestamp uint64 `json:"timestamp"`
	ExtraData string `json:"extra_data,omitempty"`

	// Protocol rules
	Protocol ProtocolConfig `json:"protocol"`
}

// ProtocolConfig holds the monetary-system-critical rules. All nodes MUST
// agree on these values for validation outcomes to be consistent.
type ProtocolConfig struct {
	Currency CurrencyRules `json:"currency"`
	Mempool  MempoolRules  `json:"mempool"`
}

// CurrencyRules defines currency issuance and capability limits.
type CurrencyRules struct {
	MinNameLength          int    `json:"min_name_length"`
	MaxNameLength          int    `json:"max_name_length"`
	CodeLength             int    `json:"code_length"`
	MaxDescriptionLength   int    `json:"max_description_length"`
	IssuanceFee            uint64 `json:"issuance_fee"`
	MinReservePerUnit      uint64 `json:"min_reserve_per_unit"`
	MaxCurrenciesPerIssuer int    `json:"max_currencies_per_issuer"`
}

// MempoolRules defines the network-wide consensus-relevant mempool bounds
// (as opposed to config.MempoolConfig, which holds purely local operational
// cadence settings like sweep interval).
type MempoolRules struct {
	MaxAttachmentBytes int    `json:"max_attachment_bytes"`
	MinFee             uint64 `json:"min_fee"`
	MaxFutureSeconds   int    `json:"max_future_seconds"`
	MaxDeadlineMinutes int    `json:"max_deadline_minutes"`
}

// =============================================================================
// Pre-defined genesis configurations
// =============================================================================

// MainnetGenesis returns the mainnet genesis configuration.
func MainnetGenesis() *Genesis {
	return &Genesis{
		ChainID:   "klingnet-monetary-mainnet-1",
		ChainName: "Klingnet Monetary Mainnet",
		Timestamp: 1770734103, // 2026-02-10
		ExtraData: "Klingnet Monetary Genesis",
		Protocol: ProtocolConfig{
			Currency: CurrencyRules{
				MinNameLength:          MinCurrencyNameLength,
				MaxNameLength:          MaxCurrencyNameLength,
				CodeLength:             CurrencyCodeLength,
				MaxDescriptionLength:   MaxCurrencyDescriptionLength,
				IssuanceFee:            IssuanceFee,
				MinReservePerUnit:      MinReservePerUnit,
				MaxCurrenciesPerIssuer: MaxCurrenciesPerIssuer,
			},
			Mempool: MempoolRules{
				MaxAttachmentBytes: MaxTransactionAttachmentBytes,
				MinFee:             1000, // 0.00001 native units
				MaxFutureSeconds:   15,
				MaxDeadlineMinutes: 1440, // 24h
			},
		},
	}
}

// TestnetGenesis returns the testnet genesis configuration.
func TestnetGenesis() *Genesis {
	g := MainnetGenesis()
	g.ChainID = "klingnet-monetary-testnet-1"
	g.ChainName = "Klingnet Monetary Testnet"
	g.ExtraData = "Klingnet Monetary Testnet Genesis"

	// Relaxed rules for testnet experimentation.
	g.Protocol.Currency.IssuanceFee = 1 * OneUnit
	g.Protocol.Mempool.MinFee = 1

	return g
}

// GenesisFor returns the genesis config for the given network.
func GenesisFor(network NetworkType) *Genesis {
	switch network {
	case Testnet:
		return TestnetGenesis()
	default:
		return MainnetGenesis()
	}
}

// =============================================================================
// Genesis file I/O
// =============================================================================

// LoadGenesis loads genesis configuration from a file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genesis file: %w", err)
	}

	var g Genesis
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing genesis file: %w", err)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}

	return &g, nil
}

// Save writes the genesis configuration to a file.
func (g *Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding genesis: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing genesis file: %w", err)
	}

	return nil
}

// Validate checks that the genesis configuration is valid.
func (g *Genesis) Validate() error {
	if g.ChainID == "" {
		return fmt.Errorf("chain_id is required")
	}

	c := g.Protocol.Currency
	if c.MinNameLength <= 0 || c.MaxNameLength < c.MinNameLength {
		return fmt.Errorf("currency name length bounds invalid")
	}
	if c.CodeLength <= 0 {
		return fmt.Errorf("currency code_length must be positive")
	}
	if c.MaxDescriptionLength <= 0 {
		return fmt.Errorf("currency max_description_length must be positive")
	}
	if c.MaxCurrenciesPerIssuer <= 0 {
		return fmt.Errorf("max_currencies_per_issuer must be positive")
	}

	m := g.Protocol.Mempool
	if m.MaxAttachmentBytes <= 0 {
		return fmt.Errorf("mempool.max_attachment_bytes must be positive")
	}
	if m.MaxFutureSeconds < 0 {
		return fmt.Errorf("mempool.max_future_seconds must be non-negative")
	}
	if m.MaxDeadlineMinutes <= 0 {
		return fmt.Errorf("mempool.max_deadline_minutes must be positive")
	}

	return nil
}

// Hash returns a BLAKE3 hash of the genesis configuration. Peers exchange
// this during the handshake to detect that they belong to different
// networks (see internal/p2p.HandshakeMessage).
func (g *Genesis) Hash() (types.Hash, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return types.Hash{}, err
	}
	return crypto.Hash(data), nil
}
