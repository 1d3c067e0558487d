package mpt

import (
	"github.com/holiman/uint256"

	"github.com/dvrpc-eth/dvrpc-node/internal/rlp"
)

// Account is the 4-field account record stored at a state-trie leaf:
// (nonce, balance, storage_root, code_hash), in that RLP order.
type Account struct {
	Nonce       uint64
	Balance     *uint256.Int
	StorageRoot [32]byte
	CodeHash    [32]byte
}

// DecodeAccount RLP-decodes the value bytes returned by walking the state
// trie into a 4-item account record. nonce must fit in 8 bytes and
// balance in 32, both as minimal (non-malleable) big-endian encodings;
// storage_root and code_hash must be exactly 32 bytes.
func DecodeAccount(value []byte) (Account, error) {
	items, err := rlp.DecodeList(value)
	if err != nil {
		return Account{}, err
	}
	if len(items) != 4 {
		return Account{}, ErrAccountDecode
	}

	nonce, err := decodeMinimalUint64(items[0].Raw)
	if err != nil {
		return Account{}, err
	}

	if len(items[1].Raw) > 32 {
		return Account{}, ErrAccountDecode
	}
	if len(items[1].Raw) > 1 && items[1].Raw[0] == 0 {
		return Account{}, ErrAccountDecode
	}
	balance := new(uint256.Int).SetBytes(items[1].Raw)

	if len(items[2].Raw) != 32 || len(items[3].Raw) != 32 {
		return Account{}, ErrAccountDecode
	}

	var storageRoot, codeHash [32]byte
	copy(storageRoot[:], items[2].Raw)
	copy(codeHash[:], items[3].Raw)

	return Account{
		Nonce:       nonce,
		Balance:     balance,
		StorageRoot: storageRoot,
		CodeHash:    codeHash,
	}, nil
}

// decodeMinimalUint64 parses a minimal big-endian unsigned integer no
// wider than 8 bytes, rejecting non-canonical leading zeros.
func decodeMinimalUint64(b []byte) (uint64, error) {
	if len(b) > 8 {
		return 0, ErrAccountDecode
	}
	if len(b) > 1 && b[0] == 0 {
		return 0, ErrAccountDecode
	}
	var v uint64
	for _, x := range b {
		v = (v << 8) | uint64(x)
	}
	return v, nil
}
