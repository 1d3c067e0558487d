package rlp

import (
	"bytes"
	"testing"
)

func TestDecodeItemTopLevel(t *testing.T) {
	item, n, err := DecodeItem([]byte{0x83, 'd', 'o', 'g'})
	if err != nil {
		t.Fatal(err)
	}
	if item.Kind != String || string(item.Raw) != "dog" || n != 4 {
		t.Fatalf("got %+v n=%d", item, n)
	}
}

func TestDecodeItemSingleByte(t *testing.T) {
	item, n, err := DecodeItem([]byte{0x05})
	if err != nil {
		t.Fatal(err)
	}
	if item.Kind != Byte || len(item.Raw) != 1 || item.Raw[0] != 0x05 || n != 1 {
		t.Fatalf("got %+v n=%d", item, n)
	}
}

func TestDecodeItemLongString(t *testing.T) {
	payload := bytes.Repeat([]byte{'x'}, 60)
	enc := append([]byte{0xb8, 60}, payload...)
	item, n, err := DecodeItem(enc)
	if err != nil {
		t.Fatal(err)
	}
	if item.Kind != String || !bytes.Equal(item.Raw, payload) || n != len(enc) {
		t.Fatalf("got kind=%v len=%d n=%d", item.Kind, len(item.Raw), n)
	}
}

func TestDecodeListBranchShape(t *testing.T) {
	// A 17-item branch-shaped list: 16 empty strings plus one value slot.
	var buf bytes.Buffer
	for i := 0; i < 16; i++ {
		buf.WriteByte(0x80)
	}
	buf.Write([]byte{0x83, 'c', 'a', 't'})
	payload := buf.Bytes()
	enc := append([]byte{0xc0 + byte(len(payload))}, payload...)

	items, err := DecodeList(enc)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 17 {
		t.Fatalf("got %d items, want 17", len(items))
	}
	for i := 0; i < 16; i++ {
		if items[i].Kind != String || len(items[i].Raw) != 0 {
			t.Fatalf("item %d: want empty string, got %+v", i, items[i])
		}
	}
	if string(items[16].Raw) != "cat" {
		t.Fatalf("value slot: got %q, want %q", items[16].Raw, "cat")
	}
}

func TestDecodeListEmbeddedNode(t *testing.T) {
	// A 2-item list whose second element is itself a nested (embedded) list.
	inner := []byte{0xc3, 0x81, 0x61, 0x01} // [ "a", 1 ] as a short list
	outer := []byte{0xc7, 0x82, 0x61, 0x62, 0xc3, 0x81, 0x61, 0x01}
	items, err := DecodeList(outer)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Kind != String || string(items[0].Raw) != "ab" {
		t.Fatalf("item 0: got %+v", items[0])
	}
	if items[1].Kind != List || !bytes.Equal(items[1].Raw, inner) {
		t.Fatalf("item 1: got %+v, want raw %x", items[1], inner)
	}
}

func TestDecodeListEmpty(t *testing.T) {
	items, err := DecodeList(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}
}

func TestDecodeListTruncatedInput(t *testing.T) {
	input := []byte{0xc3, 0x64, 0x6f} // claims 3 bytes of list payload, has 2
	if _, err := DecodeList(input); err == nil {
		t.Fatal("expected error for truncated input")
	}
}

func TestDecodeListNonCanonicalLongForm(t *testing.T) {
	input := []byte{0xf8, 0x01, 0x80} // long list, len=1, but 1 <= 55
	if _, err := DecodeList(input); err == nil {
		t.Fatal("expected error for non-canonical size")
	}
}

func TestDecodeListLeadingZeroLength(t *testing.T) {
	input := []byte{0xf9, 0x00, 0x40} // long list, length prefix has a leading zero byte
	if _, err := DecodeList(input); err == nil {
		t.Fatal("expected error for non-canonical length prefix")
	}
}

func TestDecodeItemNonCanonicalShortString(t *testing.T) {
	input := []byte{0x81, 0x05} // single byte 0x05 encoded as a 1-byte string
	if _, _, err := DecodeItem(input); err == nil {
		t.Fatal("expected error for non-canonical single-byte string")
	}
}
