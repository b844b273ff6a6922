package currency

// HashFunction identifies one of the known hash functions a MINTABLE
// currency's proof-of-work mint may target. Grounded in the pack's hash
// dependencies: BLAKE3 (already used for transaction/genesis hashing) and
// the two extra algorithms golang.org/x/crypto provides, giving the "known
// hash function" check real substance instead of a bare enum range test.
type HashFunction byte

const (
	HashUnknown HashFunction = 0
	HashSHA256  HashFunction = 1
	HashSHA3    HashFunction = 2 // golang.org/x/crypto/sha3
	HashBlake2b HashFunction = 3 // golang.org/x/crypto/blake2b
	HashBlake3  HashFunction = 4 // github.com/zeebo/blake3
)

// KnownHashFunction reports whether algo names one of the hash functions
// this node recognizes for mint validation.
func KnownHashFunction(algo byte) bool {
	switch HashFunction(algo) {
	case HashSHA256, HashSHA3, HashBlake2b, HashBlake3:
		return true
	default:
		return false
	}
}
