// Package crypto provides the Keccak-256 hash primitive used to
// authenticate trie nodes and derive trie keys from addresses and slots.
package crypto

import (
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Keccak256 calculates the Keccak-256 hash of the concatenation of data.
// This is the Ethereum Keccak variant (original padding), not NIST SHA3-256.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash calculates Keccak-256 and returns it as a common.Hash.
func Keccak256Hash(data ...[]byte) common.Hash {
	return common.BytesToHash(Keccak256(data...))
}
