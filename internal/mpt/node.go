// Package mpt implements verification of Merkle Patricia Trie inclusion
// and non-inclusion proofs, plus decoding of the account record stored at
// state-trie leaves. It never builds or mutates a trie: it only walks an
// upstream-supplied, ordered list of opaque node bytes against an
// authenticated root and reports what that root actually commits to.
package mpt

import (
	"bytes"

	"github.com/dvrpc-eth/dvrpc-node/internal/crypto"
	"github.com/dvrpc-eth/dvrpc-node/internal/hexprefix"
	"github.com/dvrpc-eth/dvrpc-node/internal/rlp"
)

// EmptyRoot is keccak256(rlp("")) = keccak256(0x80), the state/storage
// root of a trie containing no keys.
var EmptyRoot = [32]byte{
	0x56, 0xe8, 0x1f, 0x17, 0x1b, 0xcc, 0x55, 0xa6, 0xff, 0x83, 0x45, 0xe6, 0x92, 0xc0, 0xf8, 0x6e,
	0x5b, 0x48, 0xe0, 0x1b, 0x99, 0x6c, 0xad, 0xc0, 0x01, 0x62, 0x2f, 0xb5, 0xe3, 0x63, 0xb4, 0x21,
}

// EmptyCode is keccak256(""), the code hash of an account with no code.
var EmptyCode = [32]byte{
	0xc5, 0xd2, 0x46, 0x01, 0x86, 0xf7, 0x23, 0x3c, 0x92, 0x7e, 0x7d, 0xb2, 0xdc, 0xc7, 0x03, 0xc0,
	0xe5, 0x00, 0xb6, 0x53, 0xca, 0x82, 0x27, 0x3b, 0x7b, 0xfa, 0xd8, 0x04, 0x5d, 0x85, 0xa4, 0x70,
}

// step describes what to do after dispatching one decoded node: either a
// final verdict (done) or the reference the next proof-list entry must
// hash to, plus the advanced nibble cursor.
type step struct {
	done     bool
	value    []byte
	found    bool
	expected [32]byte
	cursor   int
}

// dispatchNode decodes a single node's RLP items and advances the walk by
// one level, recursing directly into embedded (sub-32-byte) children
// without consuming another proof-list entry — per the invariant that a
// canonical proof generator never lists an embedded node separately.
func dispatchNode(items []rlp.Item, keyNibbles []byte, cursor int) (step, error) {
	switch len(items) {
	case 17:
		return dispatchBranch(items, keyNibbles, cursor)
	case 2:
		return dispatchLeafOrExtension(items, keyNibbles, cursor)
	default:
		return step{}, ErrMalformedNode
	}
}

func dispatchBranch(items []rlp.Item, keyNibbles []byte, cursor int) (step, error) {
	if cursor == len(keyNibbles) {
		v := items[16].Raw
		if len(v) == 0 {
			return step{done: true, found: false}, nil
		}
		return step{done: true, found: true, value: v}, nil
	}

	n := keyNibbles[cursor]
	cursor++
	child := items[n]

	switch {
	case len(child.Raw) == 0:
		return step{done: true, found: false}, nil
	case len(child.Raw) == 32:
		var expected [32]byte
		copy(expected[:], child.Raw)
		return step{done: false, expected: expected, cursor: cursor}, nil
	case len(child.Raw) < 32:
		return resolveEmbedded(child.Raw, keyNibbles, cursor)
	default:
		return step{}, ErrBadChildRef
	}
}

func dispatchLeafOrExtension(items []rlp.Item, keyNibbles []byte, cursor int) (step, error) {
	path, isLeaf := hexprefix.Decode(items[0].Raw)
	remaining := keyNibbles[cursor:]

	if isLeaf {
		if bytes.Equal(path, remaining) {
			return step{done: true, found: true, value: items[1].Raw}, nil
		}
		return step{done: true, found: false}, nil
	}

	// Extension: path must be a prefix of the remaining key.
	if len(remaining) < len(path) || !bytes.Equal(remaining[:len(path)], path) {
		return step{done: true, found: false}, nil
	}
	cursor += len(path)

	switch {
	case len(items[1].Raw) == 32:
		var expected [32]byte
		copy(expected[:], items[1].Raw)
		return step{done: false, expected: expected, cursor: cursor}, nil
	case len(items[1].Raw) > 0 && len(items[1].Raw) < 32:
		return resolveEmbedded(items[1].Raw, keyNibbles, cursor)
	default:
		return step{}, ErrBadChildRef
	}
}

// resolveEmbedded decodes an embedded (sub-32-byte) child node's raw RLP
// bytes and dispatches it immediately, without consuming a proof-list
// entry.
func resolveEmbedded(raw []byte, keyNibbles []byte, cursor int) (step, error) {
	embeddedItems, err := rlp.DecodeList(raw)
	if err != nil {
		return step{}, err
	}
	return dispatchNode(embeddedItems, keyNibbles, cursor)
}

// hash returns the Keccak-256 hash of a node's raw bytes.
func hash(nodeBytes []byte) [32]byte {
	var h [32]byte
	copy(h[:], crypto.Keccak256(nodeBytes))
	return h
}
