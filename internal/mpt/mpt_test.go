package mpt

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"

	"github.com/dvrpc-eth/dvrpc-node/internal/crypto"
	"github.com/dvrpc-eth/dvrpc-node/internal/hexprefix"
)

// --- minimal RLP encoding helpers, used only to build fixture proofs. ---

func encodeLen(shortBase, longBase byte, size int) []byte {
	if size <= 55 {
		return []byte{shortBase + byte(size)}
	}
	var lenBytes []byte
	for n := size; n > 0; n >>= 8 {
		lenBytes = append([]byte{byte(n & 0xff)}, lenBytes...)
	}
	return append([]byte{longBase + byte(len(lenBytes))}, lenBytes...)
}

func rlpString(b []byte) []byte {
	if len(b) == 1 && b[0] <= 0x7f {
		return append([]byte{}, b...)
	}
	return append(encodeLen(0x80, 0xb7, len(b)), b...)
}

func rlpList(items ...[]byte) []byte {
	var payload []byte
	for _, it := range items {
		payload = append(payload, it...)
	}
	return append(encodeLen(0xc0, 0xf7, len(payload)), payload...)
}

func minimalBytes(v uint64) []byte {
	if v == 0 {
		return nil
	}
	var b []byte
	for n := v; n > 0; n >>= 8 {
		b = append([]byte{byte(n & 0xff)}, b...)
	}
	return b
}

func encodeAccount(nonce uint64, balance *uint256.Int, storageRoot, codeHash [32]byte) []byte {
	return rlpList(
		rlpString(minimalBytes(nonce)),
		rlpString(balance.Bytes()),
		rlpString(storageRoot[:]),
		rlpString(codeHash[:]),
	)
}

func leafNode(pathNibbles []byte, value []byte) []byte {
	encodedPath := hexprefix.Encode(pathNibbles, true)
	return rlpList(rlpString(encodedPath), rlpString(value))
}

func extensionNode(pathNibbles []byte, childHash [32]byte) []byte {
	encodedPath := hexprefix.Encode(pathNibbles, false)
	return rlpList(rlpString(encodedPath), rlpString(childHash[:]))
}

func branchNode(children [16][]byte, value []byte) []byte {
	items := make([][]byte, 0, 17)
	for _, c := range children {
		if c == nil {
			items = append(items, rlpString(nil))
		} else {
			items = append(items, rlpString(c))
		}
	}
	if value == nil {
		items = append(items, rlpString(nil))
	} else {
		items = append(items, rlpString(value))
	}
	return rlpList(items...)
}

func hashOf(node []byte) [32]byte {
	var h [32]byte
	copy(h[:], crypto.Keccak256(node))
	return h
}

// P1: walk(EMPTY_ROOT, any_key, []) == None.
func TestWalkEmptyRoot(t *testing.T) {
	key := bytes.Repeat([]byte{0xaa}, 32)
	value, found, err := Walk(EmptyRoot, key, nil)
	if err != nil {
		t.Fatal(err)
	}
	if found || value != nil {
		t.Fatalf("got (found=%v, value=%x), want not-found", found, value)
	}
}

func TestWalkEmptyProofNonEmptyRoot(t *testing.T) {
	var root [32]byte
	root[0] = 0x01
	_, _, err := Walk(root, make([]byte, 32), nil)
	if err == nil {
		t.Fatal("expected error for empty proof against non-empty root")
	}
}

// P2: a single-leaf trie round-trips: building a proof for its own key
// and walking it yields the leaf value.
func TestWalkSingleLeafInclusion(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, 32)
	keyNibbles := hexprefix.BytesToNibbles(key)
	value := []byte("account-rlp-bytes")

	leaf := leafNode(keyNibbles, value)
	root := hashOf(leaf)

	got, found, err := Walk(root, key, [][]byte{leaf})
	if err != nil {
		t.Fatal(err)
	}
	if !found || !bytes.Equal(got, value) {
		t.Fatalf("got (found=%v, value=%x), want (true, %x)", found, got, value)
	}
}

// P3: a key whose nibbles diverge from the leaf's path walks to None.
func TestWalkLeafPathMismatch(t *testing.T) {
	leafKey := bytes.Repeat([]byte{0x01}, 32)
	otherKey := bytes.Repeat([]byte{0x02}, 32)
	value := []byte("value")

	leaf := leafNode(hexprefix.BytesToNibbles(leafKey), value)
	root := hashOf(leaf)

	got, found, err := Walk(root, otherKey, [][]byte{leaf})
	if err != nil {
		t.Fatal(err)
	}
	if found || got != nil {
		t.Fatalf("got (found=%v, value=%x), want not-found", found, got)
	}
}

// Branch -> leaf (by hash reference), two-node proof.
func TestWalkBranchToLeafByHash(t *testing.T) {
	key := make([]byte, 32)
	key[0] = 0x3c // nibbles 3, c, 0, 0, ...
	keyNibbles := hexprefix.BytesToNibbles(key)
	value := []byte("leaf-value")

	leaf := leafNode(keyNibbles[1:], value)
	leafHash := hashOf(leaf)

	var children [16][]byte
	children[keyNibbles[0]] = leafHash[:]
	branch := branchNode(children, nil)
	root := hashOf(branch)

	got, found, err := Walk(root, key, [][]byte{branch, leaf})
	if err != nil {
		t.Fatal(err)
	}
	if !found || !bytes.Equal(got, value) {
		t.Fatalf("got (found=%v, value=%x), want (true, %x)", found, got, value)
	}
}

// Branch with an embedded (sub-32-byte) leaf child, resolved inline
// without a separate proof-list entry.
func TestWalkBranchWithEmbeddedLeaf(t *testing.T) {
	key := []byte{0x50} // a short key keeps the embedded leaf under 32 bytes
	keyNibbles := hexprefix.BytesToNibbles(key)
	value := []byte{0x01}

	embeddedLeaf := leafNode(keyNibbles[1:], value)
	if len(embeddedLeaf) >= 32 {
		t.Fatalf("fixture invalid: embedded leaf is %d bytes, want <32", len(embeddedLeaf))
	}

	var children [16][]byte
	children[keyNibbles[0]] = embeddedLeaf
	branch := branchNode(children, nil)
	root := hashOf(branch)

	got, found, err := Walk(root, key, [][]byte{branch})
	if err != nil {
		t.Fatal(err)
	}
	if !found || !bytes.Equal(got, value) {
		t.Fatalf("got (found=%v, value=%x), want (true, %x)", found, got, value)
	}
}

// Extension -> branch -> leaf, exercising a three-node proof and the
// extension path-prefix check.
func TestWalkExtensionThenBranchThenLeaf(t *testing.T) {
	key := make([]byte, 32)
	key[0] = 0x12
	keyNibbles := hexprefix.BytesToNibbles(key)
	value := []byte("deep-value")

	// Extension covers the first nibble (0x1); branch dispatches on the
	// second (0x2); leaf covers the remaining 62 nibbles.
	leaf := leafNode(keyNibbles[2:], value)
	leafHash := hashOf(leaf)

	var children [16][]byte
	children[keyNibbles[1]] = leafHash[:]
	branch := branchNode(children, nil)
	branchHash := hashOf(branch)

	ext := extensionNode(keyNibbles[:1], branchHash)
	root := hashOf(ext)

	got, found, err := Walk(root, key, [][]byte{ext, branch, leaf})
	if err != nil {
		t.Fatal(err)
	}
	if !found || !bytes.Equal(got, value) {
		t.Fatalf("got (found=%v, value=%x), want (true, %x)", found, got, value)
	}
}

// Extension path mismatch: the key diverges from the extension's encoded
// path, so the walk reports absence without consulting further nodes.
func TestWalkExtensionPathMismatch(t *testing.T) {
	key := make([]byte, 32)
	key[0] = 0x12
	keyNibbles := hexprefix.BytesToNibbles(key)

	leaf := leafNode(keyNibbles[2:], []byte("value"))
	leafHash := hashOf(leaf)
	var children [16][]byte
	children[keyNibbles[1]] = leafHash[:]
	branch := branchNode(children, nil)
	branchHash := hashOf(branch)

	// Extension advertises nibble 0x9, which never matches keyNibbles[0]=0x1.
	ext := extensionNode([]byte{0x9}, branchHash)
	root := hashOf(ext)

	got, found, err := Walk(root, key, [][]byte{ext, branch, leaf})
	if err != nil {
		t.Fatal(err)
	}
	if found || got != nil {
		t.Fatalf("got (found=%v, value=%x), want not-found", found, got)
	}
}

// Truncated proof: dropping the last node of a valid inclusion proof
// leaves the walk unable to terminate.
func TestWalkTruncatedProof(t *testing.T) {
	key := make([]byte, 32)
	key[0] = 0x3c
	keyNibbles := hexprefix.BytesToNibbles(key)

	leaf := leafNode(keyNibbles[1:], []byte("value"))
	leafHash := hashOf(leaf)
	var children [16][]byte
	children[keyNibbles[0]] = leafHash[:]
	branch := branchNode(children, nil)
	root := hashOf(branch)

	_, _, err := Walk(root, key, [][]byte{branch})
	if err == nil {
		t.Fatal("expected error for truncated proof")
	}
}

// P4 / wrong-hash injection: corrupting a byte of the leaf, the second
// node of a two-node proof, breaks the hash chain.
func TestWalkCorruptedLeafNode(t *testing.T) {
	key := make([]byte, 32)
	key[0] = 0x3c
	keyNibbles := hexprefix.BytesToNibbles(key)

	leaf := leafNode(keyNibbles[1:], []byte("value"))
	leafHash := hashOf(leaf)
	var children [16][]byte
	children[keyNibbles[0]] = leafHash[:]
	branch := branchNode(children, nil)
	root := hashOf(branch)

	corruptLeaf := append([]byte{}, leaf...)
	corruptLeaf[0] ^= 0xff

	_, _, err := Walk(root, key, [][]byte{branch, corruptLeaf})
	if err == nil {
		t.Fatal("expected error for corrupted node")
	}
}

func TestDecodeAccount(t *testing.T) {
	balance := uint256.NewInt(1_000_000)
	var storageRoot, codeHash [32]byte
	storageRoot[0] = 0xaa
	codeHash[0] = 0xbb

	enc := encodeAccount(7, balance, storageRoot, codeHash)
	acc, err := DecodeAccount(enc)
	if err != nil {
		t.Fatal(err)
	}
	if acc.Nonce != 7 || acc.Balance.Cmp(balance) != 0 {
		t.Fatalf("got %+v", acc)
	}
	if acc.StorageRoot != storageRoot || acc.CodeHash != codeHash {
		t.Fatalf("got %+v", acc)
	}
}

func TestDecodeAccountEmpty(t *testing.T) {
	enc := encodeAccount(0, uint256.NewInt(0), EmptyRoot, EmptyCode)
	acc, err := DecodeAccount(enc)
	if err != nil {
		t.Fatal(err)
	}
	if acc.Nonce != 0 || !acc.Balance.IsZero() {
		t.Fatalf("got %+v", acc)
	}
	if acc.StorageRoot != EmptyRoot || acc.CodeHash != EmptyCode {
		t.Fatalf("got %+v", acc)
	}
}

func TestDecodeAccountOversizedNonce(t *testing.T) {
	bad := rlpList(
		rlpString(bytes.Repeat([]byte{0x01}, 9)),
		rlpString(nil),
		rlpString(make([]byte, 32)),
		rlpString(make([]byte, 32)),
	)
	if _, err := DecodeAccount(bad); err == nil {
		t.Fatal("expected error for over-wide nonce")
	}
}
