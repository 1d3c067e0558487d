// Package proof binds an upstream-supplied EIP-1186 proof to an
// authenticated state root: it verifies the account proof and every
// requested storage-slot proof, and extracts the scalar a caller asked
// for. It is the orchestrator named C6 in the design: it never talks to
// the network or the consensus layer itself, it only verifies what it is
// handed.
package proof

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Input is an untrusted proof response for a single account, as returned
// by the upstream eth_getProof call: the claimed account fields plus the
// ordered proof-node lists needed to authenticate them.
type Input struct {
	Address       common.Address
	Balance       *uint256.Int
	Nonce         uint64
	CodeHash      common.Hash
	StorageHash   common.Hash
	AccountProof  [][]byte
	StorageProofs []StorageInput
}

// StorageInput is a single requested storage slot's claimed value plus
// its proof against the account's storage root.
type StorageInput struct {
	Key   common.Hash
	Value *uint256.Int
	Proof [][]byte
}

// Head is the authenticated (state_root, block_number, slot) tuple
// produced by the consensus adapter (C7) and threaded through to a
// proof response when the client asked to see it.
type Head struct {
	StateRoot   common.Hash
	BlockNumber uint64
	Slot        uint64
}

// ScalarKind selects which field ExtractScalar returns.
type ScalarKind int

const (
	ScalarBalance ScalarKind = iota
	ScalarNonce
	ScalarStorage
)
