// Package identity derives the local broadcast signing key from a BIP-39
// mnemonic file and a BIP-32 account index, the way a wallet-enabled node
// derives any other account key. It exists solely to give Broadcast a
// SenderID/PrivateKey pair to sign with; it is not a wallet.
package identity

import (
	"fmt"
	"os"
	"strings"

	"github.com/klingnet-chain/monetary-node/pkg/crypto"
	"github.com/klingnet-chain/monetary-node/pkg/tx"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// seedSize is the length of a BIP-39 derived seed in bytes (512 bits).
const seedSize = 64

// BIP-44-style derivation path constants. Full path:
// m/44'/CoinTypeMonetary'/account'/0/0
const (
	purposeBIP44      = bip32.FirstHardenedChild + 44
	coinTypeMonetary  = bip32.FirstHardenedChild + 8888
	changeExternal    = 0
	addressIndexZero  = 0
)

// Identity is the local account used to sign locally-originated
// transactions: its AccountID derives SenderID, its Key signs the hash.
type Identity struct {
	AccountID uint64
	Key       *crypto.PrivateKey
}

// LoadFromMnemonicFile reads a one-line BIP-39 mnemonic from path, derives
// the HD key at the given hardened account index, and returns the resulting
// Identity.
func LoadFromMnemonicFile(path string, derivationID uint32) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("identity: read mnemonic file: %w", err)
	}
	mnemonic := strings.TrimSpace(string(data))

	return FromMnemonic(mnemonic, derivationID)
}

// FromMnemonic derives an Identity directly from a mnemonic string, skipping
// the file read (used by tests and by account-generation tooling).
func FromMnemonic(mnemonic string, derivationID uint32) (*Identity, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("identity: invalid mnemonic")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("identity: derive seed: %w", err)
	}
	if len(seed) != seedSize {
		return nil, fmt.Errorf("identity: seed must be %d bytes, got %d", seedSize, len(seed))
	}

	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("identity: create master key: %w", err)
	}

	child, err := derivePath(master,
		purposeBIP44,
		coinTypeMonetary,
		bip32.FirstHardenedChild+derivationID,
		changeExternal,
		addressIndexZero,
	)
	if err != nil {
		return nil, fmt.Errorf("identity: derive account %d: %w", derivationID, err)
	}

	priv, err := privateKeyBytes(child)
	if err != nil {
		return nil, err
	}
	key, err := crypto.PrivateKeyFromBytes(priv)
	if err != nil {
		return nil, fmt.Errorf("identity: load signing key: %w", err)
	}

	return &Identity{
		AccountID: tx.AccountIDFromPublicKey(key.PublicKey()),
		Key:       key,
	}, nil
}

func derivePath(master *bip32.Key, indices ...uint32) (*bip32.Key, error) {
	current := master
	for _, idx := range indices {
		child, err := current.NewChildKey(idx)
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// privateKeyBytes strips bip32's leading 0x00 padding byte from a 33-byte
// private key encoding, matching the raw 32-byte form pkg/crypto expects.
func privateKeyBytes(k *bip32.Key) ([]byte, error) {
	if !k.IsPrivate {
		return nil, fmt.Errorf("identity: derived key has no private component")
	}
	raw := k.Key
	if len(raw) == 33 && raw[0] == 0 {
		return raw[1:], nil
	}
	return raw, nil
}

// GenerateMnemonic creates a new 24-word BIP-39 mnemonic, for `monetaryd
// identity generate`-style tooling.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("identity: generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("identity: generate mnemonic: %w", err)
	}
	return mnemonic, nil
}
