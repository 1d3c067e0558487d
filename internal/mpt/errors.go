package mpt

import "errors"

var (
	// ErrHashMismatch is returned when a proof node's hash does not match
	// the reference expected by its parent.
	ErrHashMismatch = errors.New("mpt: node hash does not match expected reference")

	// ErrEmbeddedNode is returned when a sub-32-byte node appears as a
	// standalone entry in the proof list; embedded nodes must be inlined
	// into their parent, never listed separately.
	ErrEmbeddedNode = errors.New("mpt: embedded node present as standalone proof entry")

	// ErrMalformedNode is returned when a decoded node has neither 17
	// (branch) nor 2 (leaf/extension) items.
	ErrMalformedNode = errors.New("mpt: node has invalid item count")

	// ErrBadChildRef is returned when a branch or extension child
	// reference is neither empty, exactly 32 bytes, nor a valid embedded
	// node.
	ErrBadChildRef = errors.New("mpt: invalid child reference size")

	// ErrIncompleteProof is returned when the proof list is exhausted
	// before the walk terminates.
	ErrIncompleteProof = errors.New("mpt: incomplete proof")

	// ErrEmptyProofNonEmptyRoot is returned when an empty proof list is
	// supplied against a root other than EmptyRoot.
	ErrEmptyProofNonEmptyRoot = errors.New("mpt: empty proof for non-empty root")

	// ErrAccountDecode is returned when a trie value cannot be decoded as
	// a 4-field account record.
	ErrAccountDecode = errors.New("mpt: malformed account record")
)
