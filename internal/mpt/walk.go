package mpt

import (
	"github.com/dvrpc-eth/dvrpc-node/internal/hexprefix"
	"github.com/dvrpc-eth/dvrpc-node/internal/rlp"
)

// Walk verifies that keyBytes maps to a value under root, given an
// ordered list of opaque proof node bytes. It returns (value, true, nil)
// when the key is proven present, (nil, false, nil) when the key is
// proven absent, and a non-nil error when the proof cannot authenticate
// any verdict (broken hash chain, truncated walk, malformed node).
func Walk(root [32]byte, keyBytes []byte, proof [][]byte) ([]byte, bool, error) {
	keyNibbles := hexprefix.BytesToNibbles(keyBytes)

	if len(proof) == 0 {
		if root == EmptyRoot {
			return nil, false, nil
		}
		return nil, false, ErrEmptyProofNonEmptyRoot
	}

	expected := root
	cursor := 0

	for i, nodeBytes := range proof {
		nodeHash := hash(nodeBytes)
		if len(nodeBytes) >= 32 {
			if nodeHash != expected {
				return nil, false, ErrHashMismatch
			}
		} else if i > 0 {
			// A sub-32-byte node must never appear as its own proof-list
			// entry: canonical generators always inline it into its
			// parent (invariant I2).
			return nil, false, ErrEmbeddedNode
		} else if nodeHash != expected {
			return nil, false, ErrHashMismatch
		}

		items, err := rlp.DecodeList(nodeBytes)
		if err != nil {
			return nil, false, err
		}

		s, err := dispatchNode(items, keyNibbles, cursor)
		if err != nil {
			return nil, false, err
		}
		if s.done {
			return s.value, s.found, nil
		}
		expected = s.expected
		cursor = s.cursor
	}

	return nil, false, ErrIncompleteProof
}
