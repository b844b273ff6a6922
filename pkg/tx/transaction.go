// Package tx defines the account-based unconfirmed transaction consumed by
// the Monetary System mempool and validator. Full wire encoding, the block
// engine, and the complete transaction type registry are external
// collaborators; only the shape the core validates and stores is modeled
// here.
package tx

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/klingnet-chain/monetary-node/pkg/crypto"
)

// DigitalGoodsStoreBlock is the height at/above which transactions carry
// version 1 and the EC-block anchor fields. Below it, version must be 0 and
// the anchor fields are absent.
const DigitalGoodsStoreBlock uint32 = 0

// Transaction is the unconfirmed transaction shape consumed by the core.
// SenderPublicKey is carried alongside Signature so the processor can
// verify a transaction self-contained, without a separate account lookup —
// signature verification itself remains pkg/crypto's external primitive.
type Transaction struct {
	ID uint64 `json:"id"`

	SenderID    uint64 `json:"sender_id"`
	RecipientID uint64 `json:"recipient_id"`

	Amount uint64 `json:"amount"`
	Fee    uint64 `json:"fee"`

	Timestamp int64  `json:"timestamp"`
	Deadline  uint16 `json:"deadline"` // minutes

	Version byte `json:"version"`

	// Economic-clustering anchor, present iff Version >= 1.
	ECBlockHeight uint32 `json:"ec_block_height,omitempty"`
	ECBlockID     uint64 `json:"ec_block_id,omitempty"`

	Attachment Attachment `json:"attachment"`

	SenderPublicKey []byte `json:"sender_public_key"`
	Signature       []byte `json:"signature"`

	// Bytes caches the canonical wire encoding this transaction was parsed
	// from (or, for locally-constructed transactions, the encoding computed
	// by Encode). ID is not derived from it: DeriveID hashes SigningBytes,
	// which leaves out Bytes and ID, so re-encoding a transaction does not
	// change its id.
	Bytes []byte `json:"bytes,omitempty"`
}

// Expiration returns the epoch-second instant this transaction is no longer
// eligible for the mempool: timestamp + deadline*60.
func (t *Transaction) Expiration() int64 {
	return t.Timestamp + int64(t.Deadline)*60
}

// SigningBytes returns the canonical byte form the signature covers and the
// id is derived from. It excludes ID, SenderPublicKey, Signature, and the
// cached Bytes field itself.
func (t *Transaction) SigningBytes() []byte {
	cp := *t
	cp.ID = 0
	cp.SenderPublicKey = nil
	cp.Signature = nil
	cp.Bytes = nil
	// Canonical JSON encoding is adequate here: the wire codec itself is an
	// external collaborator (see package doc); this core only needs a
	// stable byte form to hash and sign.
	data, err := json.Marshal(&cp)
	if err != nil {
		// Struct is composed entirely of JSON-marshalable fields; this
		// cannot fail in practice.
		panic(fmt.Sprintf("tx: marshal signing bytes: %v", err))
	}
	return data
}

// Hash returns BLAKE3(SigningBytes()).
func (t *Transaction) Hash() [32]byte {
	return crypto.Hash(t.SigningBytes())
}

// DeriveID computes and sets t.ID from t.Hash(), truncating the 32-byte
// hash to its first 8 bytes (little-endian), matching the NXT-style 64-bit
// transaction id convention.
func (t *Transaction) DeriveID() uint64 {
	h := t.Hash()
	t.ID = binary.LittleEndian.Uint64(h[:8])
	return t.ID
}

// Encode produces the canonical wire form (currently a JSON envelope over
// SigningBytes plus the signature and public key) and populates t.Bytes.
// A production node would swap this for the protocol's real binary codec
// without touching any other package, since only Bytes/ID/Expiration and
// the Attachment discriminant are consumed elsewhere.
func (t *Transaction) Encode() []byte {
	data, err := json.Marshal(t)
	if err != nil {
		panic(fmt.Sprintf("tx: encode: %v", err))
	}
	t.Bytes = data
	return data
}

// Decode parses the canonical wire form produced by Encode.
func Decode(data []byte) (*Transaction, error) {
	var t Transaction
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("tx: decode: %w", err)
	}
	t.Bytes = data
	return &t, nil
}

// HasECBlock reports whether the EC-block anchor fields are present for
// this transaction's version.
func (t *Transaction) HasECBlock() bool {
	return t.Version >= 1
}

// AccountIDFromPublicKey derives the NXT-style 64-bit account id from a
// public key: the first 8 bytes (little-endian) of BLAKE3(pubKey). This is
// the same truncation convention DeriveID uses for transaction ids, applied
// to the account namespace so a locally-held key can sign as its own sender.
func AccountIDFromPublicKey(pubKey []byte) uint64 {
	h := crypto.Hash(pubKey)
	return binary.LittleEndian.Uint64(h[:8])
}
