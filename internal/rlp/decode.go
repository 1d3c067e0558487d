// Package rlp implements the Recursive Length Prefix encoding used
// throughout the trie: canonical byte-string and list serialization with
// bounds-checked, non-malleable length decoding.
package rlp

import "io"

// Kind represents the type of an RLP value.
type Kind int

const (
	Byte   Kind = iota // Single byte in [0x00, 0x7f].
	String             // RLP string (including empty string).
	List               // RLP list.
)

// Item is one decoded element of a top-level list, as returned by
// DecodeList. For Byte/String items Raw holds the decoded payload; for
// List items Raw holds the item's full original bytes (prefix and content),
// so an embedded node can be fed straight back into DecodeList.
type Item struct {
	Kind Kind
	Raw  []byte
}

// DecodeItem decodes a single top-level RLP item (string or list) and
// returns it along with the number of bytes consumed. It never recurses
// into list contents; use DecodeList on a List item's Raw bytes for that.
func DecodeItem(data []byte) (Item, int, error) {
	s := newByteStream(data)
	kind, payload, total, err := s.readItem()
	if err != nil {
		return Item{}, 0, err
	}
	if kind == List {
		return Item{Kind: List, Raw: data[:total]}, total, nil
	}
	return Item{Kind: kind, Raw: payload}, total, nil
}

// DecodeList decodes data as a single top-level RLP list and returns its
// child items in order. An empty input decodes to an empty item slice,
// not an error.
func DecodeList(data []byte) ([]Item, error) {
	if len(data) == 0 {
		return nil, nil
	}
	s := newByteStream(data)
	size, err := s.list()
	if err != nil {
		return nil, err
	}
	end := s.pos + int(size)
	var items []Item
	for s.pos < end {
		start := s.pos
		kind, payload, total, err := s.readItem()
		if err != nil {
			return nil, err
		}
		if kind == List {
			items = append(items, Item{Kind: List, Raw: data[start : start+total]})
		} else {
			items = append(items, Item{Kind: kind, Raw: payload})
		}
	}
	if s.pos != end {
		return nil, ErrEOL
	}
	return items, nil
}

// stream is the internal cursor over a single top-level RLP item's bytes.
type stream struct {
	data []byte
	pos  int
}

func newByteStream(data []byte) *stream {
	return &stream{data: data, pos: 0}
}

// readItem reads a complete RLP item (prefix + payload) and returns the payload bytes
// and the total number of bytes consumed. For single bytes [0x00, 0x7f], the payload
// is the byte itself.
func (s *stream) readItem() (kind Kind, payload []byte, totalConsumed int, err error) {
	lim := len(s.data)
	if s.pos >= lim {
		return 0, nil, 0, io.EOF
	}
	prefix := s.data[s.pos]

	switch {
	case prefix <= 0x7f:
		// Single byte.
		payload = s.data[s.pos : s.pos+1]
		s.pos++
		return Byte, payload, 1, nil

	case prefix <= 0xb7:
		// Short string: 0-55 bytes.
		size := int(prefix - 0x80)
		start := s.pos + 1
		end := start + size
		if end > lim {
			return 0, nil, 0, io.ErrUnexpectedEOF
		}
		if size == 1 && s.data[start] <= 0x7f {
			return 0, nil, 0, ErrCanonSize
		}
		payload = s.data[start:end]
		total := 1 + size
		s.pos = end
		return String, payload, total, nil

	case prefix <= 0xbf:
		// Long string.
		lenOfLen := int(prefix - 0xb7)
		if s.pos+1+lenOfLen > lim {
			return 0, nil, 0, io.ErrUnexpectedEOF
		}
		sizeBytes := s.data[s.pos+1 : s.pos+1+lenOfLen]
		if len(sizeBytes) > 0 && sizeBytes[0] == 0 {
			return 0, nil, 0, ErrCanonInt
		}
		size := int(readBigEndian(sizeBytes))
		if size <= 55 {
			return 0, nil, 0, ErrNonCanonicalSize
		}
		start := s.pos + 1 + lenOfLen
		end := start + size
		if end > lim {
			return 0, nil, 0, io.ErrUnexpectedEOF
		}
		payload = s.data[start:end]
		total := 1 + lenOfLen + size
		s.pos = end
		return String, payload, total, nil

	case prefix <= 0xf7:
		// Short list.
		size := int(prefix - 0xc0)
		start := s.pos + 1
		end := start + size
		if end > lim {
			return 0, nil, 0, io.ErrUnexpectedEOF
		}
		payload = s.data[start:end]
		total := 1 + size
		s.pos = end
		return List, payload, total, nil

	default:
		// Long list.
		lenOfLen := int(prefix - 0xf7)
		if s.pos+1+lenOfLen > lim {
			return 0, nil, 0, io.ErrUnexpectedEOF
		}
		sizeBytes := s.data[s.pos+1 : s.pos+1+lenOfLen]
		if len(sizeBytes) > 0 && sizeBytes[0] == 0 {
			return 0, nil, 0, ErrCanonInt
		}
		size := int(readBigEndian(sizeBytes))
		if size <= 55 {
			return 0, nil, 0, ErrNonCanonicalSize
		}
		start := s.pos + 1 + lenOfLen
		end := start + size
		if end > lim {
			return 0, nil, 0, io.ErrUnexpectedEOF
		}
		payload = s.data[start:end]
		total := 1 + lenOfLen + size
		s.pos = end
		return List, payload, total, nil
	}
}

// list reads the start of a top-level RLP list and returns its payload
// size, advancing pos past the length prefix.
func (s *stream) list() (uint64, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	prefix := s.data[s.pos]

	var payloadStart, payloadEnd int
	switch {
	case prefix >= 0xc0 && prefix <= 0xf7:
		size := int(prefix - 0xc0)
		payloadStart = s.pos + 1
		payloadEnd = payloadStart + size
	case prefix > 0xf7:
		lenOfLen := int(prefix - 0xf7)
		if s.pos+1+lenOfLen > len(s.data) {
			return 0, io.ErrUnexpectedEOF
		}
		sizeBytes := s.data[s.pos+1 : s.pos+1+lenOfLen]
		if len(sizeBytes) > 0 && sizeBytes[0] == 0 {
			return 0, ErrCanonInt
		}
		size := int(readBigEndian(sizeBytes))
		if size <= 55 {
			return 0, ErrNonCanonicalSize
		}
		payloadStart = s.pos + 1 + lenOfLen
		payloadEnd = payloadStart + size
	default:
		return 0, ErrExpectedList
	}

	if payloadEnd > len(s.data) {
		return 0, io.ErrUnexpectedEOF
	}
	s.pos = payloadStart
	return uint64(payloadEnd - payloadStart), nil
}

func readBigEndian(b []byte) uint64 {
	var val uint64
	for _, x := range b {
		val = (val << 8) | uint64(x)
	}
	return val
}
