package pager

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
)

// HeaderSize is the fixed size, in bytes, of a page's header: page_id,
// parent_id, prev_id, next_id (8 bytes each), is_leaf (4 bytes), and
// record_count (8 bytes).
const HeaderSize = 8*4 + 4 + 8

const (
	offsetPageID      = 0
	offsetParentID    = 8
	offsetPrevID      = 16
	offsetNextID      = 24
	offsetIsLeaf      = 32
	offsetRecordCount = 36
)

// keySize is the encoded size of one key: a 4-byte signed integer.
const keySize = 4

// encodeNode serializes n into a pageSize-byte buffer: the fixed
// header, followed by record_count 4-byte signed keys, followed by
// record_count zero-terminated value fields. Leaf values are the raw
// payload bytes; internal node values are the decimal textual form of
// the child page id. It returns ErrPageTooSmall if the encoded content
// would not fit in pageSize bytes.
func encodeNode(n *Node, pageSize int) ([]byte, error) {
	count := len(n.Keys)
	if n.IsLeaf && len(n.LeafValues) != count {
		return nil, fmt.Errorf("pager: leaf node has %d keys but %d values", count, len(n.LeafValues))
	}
	if !n.IsLeaf && len(n.ChildIDs) != count {
		return nil, fmt.Errorf("pager: internal node has %d keys but %d children", count, len(n.ChildIDs))
	}

	buf := make([]byte, pageSize)
	binary.BigEndian.PutUint64(buf[offsetPageID:], uint64(n.PageID))
	binary.BigEndian.PutUint64(buf[offsetParentID:], uint64(n.ParentID))
	binary.BigEndian.PutUint64(buf[offsetPrevID:], uint64(n.PrevID))
	binary.BigEndian.PutUint64(buf[offsetNextID:], uint64(n.NextID))
	if n.IsLeaf {
		binary.BigEndian.PutUint32(buf[offsetIsLeaf:], 1)
	} else {
		binary.BigEndian.PutUint32(buf[offsetIsLeaf:], 0)
	}
	binary.BigEndian.PutUint64(buf[offsetRecordCount:], uint64(count))

	offset := HeaderSize
	for _, k := range n.Keys {
		if offset+keySize > pageSize {
			return nil, ErrPageTooSmall
		}
		binary.BigEndian.PutUint32(buf[offset:], uint32(k))
		offset += keySize
	}

	for i := 0; i < count; i++ {
		var v []byte
		if n.IsLeaf {
			v = n.LeafValues[i]
		} else {
			v = []byte(strconv.FormatInt(n.ChildIDs[i], 10))
		}
		if offset+len(v)+1 > pageSize {
			return nil, ErrPageTooSmall
		}
		copy(buf[offset:], v)
		offset += len(v)
		buf[offset] = 0
		offset++
	}
	return buf, nil
}

// decodeNode parses a pageSize-byte page body back into a Node. It
// returns ErrCorruptPage if the header is malformed, or if the value
// region does not split into exactly record_count zero-terminated
// fields.
func decodeNode(data []byte) (*Node, error) {
	if len(data) < HeaderSize {
		return nil, ErrCorruptPage
	}

	n := &Node{
		PageID:   int64(binary.BigEndian.Uint64(data[offsetPageID:])),
		ParentID: int64(binary.BigEndian.Uint64(data[offsetParentID:])),
		PrevID:   int64(binary.BigEndian.Uint64(data[offsetPrevID:])),
		NextID:   int64(binary.BigEndian.Uint64(data[offsetNextID:])),
	}
	switch binary.BigEndian.Uint32(data[offsetIsLeaf:]) {
	case 0:
		n.IsLeaf = false
	case 1:
		n.IsLeaf = true
	default:
		return nil, ErrCorruptPage
	}
	count := binary.BigEndian.Uint64(data[offsetRecordCount:])

	offset := HeaderSize
	keys := make([]int32, 0, count)
	for i := uint64(0); i < count; i++ {
		if offset+keySize > len(data) {
			return nil, ErrCorruptPage
		}
		keys = append(keys, int32(binary.BigEndian.Uint32(data[offset:])))
		offset += keySize
	}

	values := make([][]byte, 0, count)
	cursor := offset
	for i := uint64(0); i < count; i++ {
		rest := data[cursor:]
		z := bytes.IndexByte(rest, 0)
		if z < 0 {
			return nil, ErrCorruptPage
		}
		values = append(values, rest[:z])
		cursor += z + 1
	}

	n.Keys = keys
	if n.IsLeaf {
		n.LeafValues = make([][]byte, count)
		for i, v := range values {
			n.LeafValues[i] = append([]byte(nil), v...)
		}
	} else {
		n.ChildIDs = make([]int64, count)
		for i, v := range values {
			id, err := strconv.ParseInt(string(v), 10, 64)
			if err != nil {
				return nil, ErrCorruptPage
			}
			n.ChildIDs[i] = id
		}
	}
	return n, nil
}

// SerializedSize returns the exact number of bytes n would occupy once
// encoded: the header, the binary keys, and the zero-terminated value
// fields. Tree operations use this to decide whether a node still fits
// page_max_size or has fallen under the half-full threshold, without
// needing a full encode.
func SerializedSize(n *Node) int {
	size := HeaderSize + keySize*len(n.Keys)
	if n.IsLeaf {
		for _, v := range n.LeafValues {
			size += len(v) + 1
		}
	} else {
		for _, id := range n.ChildIDs {
			size += len(strconv.FormatInt(id, 10)) + 1
		}
	}
	return size
}
