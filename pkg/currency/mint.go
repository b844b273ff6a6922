package currency

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/zeebo/blake3"
)

// ComputeMintHash hashes data with the hash function named by algo. Used to
// check a MINTING transaction's nonce against the currency's
// min/max difficulty bounds once the proof-of-work itself is verified
// (block validation's concern, external to this core) — kept here because
// the algorithm resolution it depends on, KnownHashFunction, lives in this
// package.
func ComputeMintHash(algo HashFunction, data []byte) ([]byte, error) {
	switch algo {
	case HashSHA256:
		sum := sha256.Sum256(data)
		return sum[:], nil
	case HashSHA3:
		sum := sha3.Sum256(data)
		return sum[:], nil
	case HashBlake2b:
		sum := blake2b.Sum256(data)
		return sum[:], nil
	case HashBlake3:
		sum := blake3.Sum256(data)
		return sum[:], nil
	default:
		return nil, fmt.Errorf("currency: unknown mint hash algorithm %d", algo)
	}
}
