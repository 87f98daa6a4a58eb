package forest

import (
	"crypto/sha256"
	"hash"
)

// Proof wire identifiers. Proofs name the hash algorithm they were built
// with so a verifier can refuse or dispatch rather than misinterpret.
const (
	ProofVersion = uint8(1)

	HashAlgSHA256 = "sha-256"
)

var hashAlgs = map[string]func() hash.Hash{
	HashAlgSHA256: sha256.New,
}

func hashAlgFactory(alg string) (func() hash.Hash, bool) {
	newHash, ok := hashAlgs[alg]
	return newHash, ok
}
