package proof

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/dvrpc-eth/dvrpc-node/internal/crypto"
	"github.com/dvrpc-eth/dvrpc-node/internal/mpt"
)

// VerifyAccount checks that the account fields claimed in in.Input are
// exactly what the state trie under stateRoot commits to for
// keccak256(in.Address). A key that proves absent is accepted only if
// every claimed field equals the canonical empty-account defaults (I6).
func VerifyAccount(stateRoot common.Hash, in Input) (bool, error) {
	key := crypto.Keccak256(in.Address.Bytes())

	value, found, err := mpt.Walk([32]byte(stateRoot), key, in.AccountProof)
	if err != nil {
		return false, newError(KindProof, "account walk failed", err)
	}

	if !found {
		isEmpty := in.Balance.IsZero() &&
			in.Nonce == 0 &&
			in.StorageHash == common.Hash(mpt.EmptyRoot) &&
			in.CodeHash == common.Hash(mpt.EmptyCode)
		return isEmpty, nil
	}

	account, err := mpt.DecodeAccount(value)
	if err != nil {
		return false, newError(KindDecode, "account rlp decode failed", err)
	}

	if account.Nonce != in.Nonce {
		return false, nil
	}
	if account.Balance.Cmp(in.Balance) != 0 {
		return false, nil
	}
	if common.Hash(account.StorageRoot) != in.StorageHash {
		return false, nil
	}
	if common.Hash(account.CodeHash) != in.CodeHash {
		return false, nil
	}
	return true, nil
}

// VerifyStorage checks a single slot's claimed value against the account's
// storage root. An empty storage trie short-circuits: a zero claimed
// value needs no proof nodes at all.
func VerifyStorage(storageRoot common.Hash, sp StorageInput) (bool, error) {
	if len(sp.Proof) == 0 {
		return sp.Value.IsZero() && storageRoot == common.Hash(mpt.EmptyRoot), nil
	}

	key := crypto.Keccak256(sp.Key.Bytes())
	value, found, err := mpt.Walk([32]byte(storageRoot), key, sp.Proof)
	if err != nil {
		return false, newError(KindProof, "storage walk failed", err)
	}

	if !found {
		return sp.Value.IsZero(), nil
	}

	decoded, err := decodeStorageValue(value)
	if err != nil {
		return false, newError(KindDecode, "storage value decode failed", err)
	}
	return decoded.Cmp(sp.Value) == 0, nil
}

// VerifyComplete runs VerifyAccount followed by VerifyStorage for every
// requested slot. All must pass for the overall proof to be accepted.
func VerifyComplete(stateRoot common.Hash, in Input) (bool, error) {
	ok, err := VerifyAccount(stateRoot, in)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	for _, sp := range in.StorageProofs {
		ok, err := VerifyStorage(in.StorageHash, sp)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// ExtractScalar returns the field a client asked for, as a uint256. It
// is only ever called after VerifyComplete has returned true; it does not
// re-verify anything itself.
func ExtractScalar(in Input, kind ScalarKind) *uint256.Int {
	switch kind {
	case ScalarNonce:
		return new(uint256.Int).SetUint64(in.Nonce)
	case ScalarStorage:
		if len(in.StorageProofs) == 0 {
			return new(uint256.Int)
		}
		return in.StorageProofs[0].Value
	default:
		return in.Balance
	}
}

// decodeStorageValue interprets a trie value already extracted by
// mpt.Walk as a slot scalar. Canonical proofs RLP-encode the scalar a
// second time (minimal big-endian string). A value that is a single byte
// <= 0x7f is that byte's own RLP encoding, which is also the raw shape
// some upstreams emit for small scalars. A 0x80..0xb7 prefix is decoded
// as an RLP short string of at most 32 bytes. Any other value of at most
// 32 bytes is taken as raw big-endian bytes, a non-canonical fallback.
func decodeStorageValue(data []byte) (*uint256.Int, error) {
	if len(data) == 0 {
		return new(uint256.Int), nil
	}
	if len(data) == 1 && data[0] <= 0x7f {
		return new(uint256.Int).SetBytes(data[:1]), nil
	}
	if data[0] >= 0x80 && data[0] <= 0xb7 {
		size := int(data[0] - 0x80)
		if size == 0 {
			return new(uint256.Int), nil
		}
		if len(data) < 1+size || size > 32 {
			return nil, ErrStorageValueTruncated
		}
		return new(uint256.Int).SetBytes(data[1 : 1+size]), nil
	}
	if len(data) > 32 {
		return nil, ErrStorageValueTruncated
	}
	return new(uint256.Int).SetBytes(data), nil
}
