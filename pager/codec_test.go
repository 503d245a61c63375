package pager

import (
	"bytes"
	"testing"
)

func assertEqual[T comparable](t *testing.T, expected, actual T, msg string) {
	t.Helper()
	if expected == actual {
		return
	}
	if msg != "" {
		t.Errorf("expected (%+v) is not equal to actual (%+v): %s", expected, actual, msg)
	} else {
		t.Errorf("expected (%+v) is not equal to actual (%+v)", expected, actual)
	}
}

func Test_encodeDecodeLeafRoundTrip(t *testing.T) {
	n := &Node{
		PageID:     1,
		ParentID:   0,
		PrevID:     0,
		NextID:     2,
		IsLeaf:     true,
		Keys:       []int32{1, 2, 3},
		LeafValues: [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")},
	}

	buf, err := encodeNode(n, DefaultPageSize)
	if err != nil {
		t.Fatalf("encodeNode: %v", err)
	}
	got, err := decodeNode(buf)
	if err != nil {
		t.Fatalf("decodeNode: %v", err)
	}

	assertEqual(t, n.PageID, got.PageID, "page id")
	assertEqual(t, n.NextID, got.NextID, "next id")
	assertEqual(t, n.IsLeaf, got.IsLeaf, "is leaf")
	if len(got.Keys) != len(n.Keys) {
		t.Fatalf("key count: want %d got %d", len(n.Keys), len(got.Keys))
	}
	for i := range n.Keys {
		assertEqual(t, n.Keys[i], got.Keys[i], "key")
		if !bytes.Equal(n.LeafValues[i], got.LeafValues[i]) {
			t.Errorf("value %d: want %q got %q", i, n.LeafValues[i], got.LeafValues[i])
		}
	}
}

func Test_encodeDecodeInternalRoundTrip(t *testing.T) {
	n := &Node{
		PageID:   5,
		ParentID: 1,
		IsLeaf:   false,
		Keys:     []int32{10, 20},
		ChildIDs: []int64{100, 200},
	}

	buf, err := encodeNode(n, DefaultPageSize)
	if err != nil {
		t.Fatalf("encodeNode: %v", err)
	}
	got, err := decodeNode(buf)
	if err != nil {
		t.Fatalf("decodeNode: %v", err)
	}
	assertEqual(t, n.ParentID, got.ParentID, "parent id")
	for i := range n.ChildIDs {
		assertEqual(t, n.ChildIDs[i], got.ChildIDs[i], "child id")
	}
}

func Test_serializedSizeMatchesEncodedPrefix(t *testing.T) {
	n := &Node{
		PageID:     1,
		IsLeaf:     true,
		Keys:       []int32{7},
		LeafValues: [][]byte{[]byte("hello")},
	}
	want := HeaderSize + keySize + len("hello") + 1
	assertEqual(t, want, SerializedSize(n), "serialized size")

	buf, err := encodeNode(n, DefaultPageSize)
	if err != nil {
		t.Fatalf("encodeNode: %v", err)
	}
	// The encoded content ends with the last value's zero terminator at
	// index want-1; everything after it is zero padding.
	assertEqual(t, want-1, len(bytes.TrimRight(buf, "\x00")), "encoded content length before the final terminator")
}

func Test_decodeRejectsShortHeader(t *testing.T) {
	_, err := decodeNode(make([]byte, HeaderSize-1))
	if err != ErrCorruptPage {
		t.Errorf("want ErrCorruptPage, got %v", err)
	}
}

func Test_decodeRejectsMissingTerminator(t *testing.T) {
	buf := make([]byte, DefaultPageSize)
	// record_count = 1 but no zero byte anywhere in the value region
	buf[offsetRecordCount+7] = 1
	for i := HeaderSize + keySize; i < len(buf); i++ {
		buf[i] = 'x'
	}
	_, err := decodeNode(buf)
	if err != ErrCorruptPage {
		t.Errorf("want ErrCorruptPage, got %v", err)
	}
}

func Test_encodeRejectsOversizedNode(t *testing.T) {
	n := &Node{
		PageID:     1,
		IsLeaf:     true,
		Keys:       []int32{1},
		LeafValues: [][]byte{bytes.Repeat([]byte("a"), DefaultPageSize)},
	}
	if _, err := encodeNode(n, DefaultPageSize); err != ErrPageTooSmall {
		t.Errorf("want ErrPageTooSmall, got %v", err)
	}
}
