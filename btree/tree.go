// Package btree implements the B+ tree engine: search, insert, delete,
// split, redistribute, coalesce, and root adjustment. It holds no page
// I/O logic of its own — every page read or write goes through a
// pager.Pager.
package btree

import (
	"bytes"
	"fmt"
	"path/filepath"

	"wtfdb/pager"
)

// DefaultPageSize and DefaultCacheCapacity mirror the pager's
// defaults, re-exported so callers of btree.Open need not import
// package pager just to name them.
const (
	DefaultPageSize      = pager.DefaultPageSize
	DefaultCacheCapacity = pager.DefaultCacheCapacity
)

// Status reports the fields the spec requires of status(): page size,
// current root id, height, node count, split and merge counters, and
// the fill rate (unused bytes across leaf pages / total leaf-region
// bytes on disk).
type Status struct {
	PageSize   int
	RootPageID int64
	Height     int
	NodeCount  int
	SplitCount int
	MergeCount int
	FillRate   float64
}

// Tree is a single-writer, single-threaded B+ tree index over 32-bit
// signed integer keys and byte-string values, backed by a pager.Pager.
type Tree struct {
	pager    *pager.Pager
	pageSize int
	filename string

	rootID     int64
	height     int
	nodeCount  int
	splitCount int
	mergeCount int
}

// Open creates a new database at path (initializing a single empty
// leaf as root) or opens an existing one, per the spec's
// open(path, page_size, cache_capacity) -> Tree.
func Open(path string, pageSize int, cacheCapacity int) (*Tree, error) {
	if pageSize <= pager.HeaderSize+8 {
		return nil, fmt.Errorf("%w: page size %d too small", ErrInvalidArgument, pageSize)
	}

	pg, meta, err := pager.Open(path, pageSize, cacheCapacity)
	if err != nil {
		return nil, err
	}

	t := &Tree{
		pager:    pg,
		pageSize: pg.PageSize(),
		filename: filepath.Base(path),
	}

	if meta.RootPageID == 0 {
		id := pg.AllocatePage()
		root := pager.NewLeaf(id)
		if err := pg.PutPage(id, root); err != nil {
			return nil, err
		}
		t.rootID = id
		t.height = 1
		t.nodeCount = 1
		if err := t.persistMetadata(); err != nil {
			return nil, err
		}
		return t, nil
	}

	t.rootID = meta.RootPageID
	t.height = meta.Height
	t.nodeCount = meta.NodeCount
	t.splitCount = meta.SplitCount
	t.mergeCount = meta.MergeCount
	if meta.Filename != "" {
		t.filename = meta.Filename
	}
	return t, nil
}

func (t *Tree) persistMetadata() error {
	fr, err := t.fillRate()
	if err != nil {
		return err
	}
	return t.pager.WriteMetadata(pager.Metadata{
		RootPageID: t.rootID,
		Height:     t.height,
		NodeCount:  t.nodeCount,
		SplitCount: t.splitCount,
		MergeCount: t.mergeCount,
		FillRate:   fr,
		Filename:   t.filename,
	})
}

// defaultMergeSize is the half-full threshold: a non-root, non-empty
// node's serialized size must stay at or above this bound, below which
// it triggers redistribute or coalesce.
func defaultMergeSize(pageSize int) int {
	return pageSize / 2
}

// descend walks from the root to the leaf that key would occupy,
// fetching each successor page through the pager.
func (t *Tree) descend(key int32) (*pager.Node, error) {
	node, err := t.pager.GetPage(t.rootID)
	if err != nil {
		return nil, err
	}
	for !node.IsLeaf {
		i := findLastLEQ(node.Keys, key)
		if i < 0 {
			i = 0
		}
		node, err = t.pager.GetPage(node.ChildIDs[i])
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

// Get returns the value stored for key, or ok == false if key is
// absent.
func (t *Tree) Get(key int32) (value []byte, ok bool, err error) {
	leaf, err := t.descend(key)
	if err != nil {
		return nil, false, err
	}
	i := findLastLEQ(leaf.Keys, key)
	if i < 0 || leaf.Keys[i] != key {
		return nil, false, nil
	}
	return append([]byte(nil), leaf.LeafValues[i]...), true, nil
}

// Insert stores value under key, overwriting any existing value for
// key. It returns true on success, including on overwrite.
func (t *Tree) Insert(key int32, value []byte) (bool, error) {
	if bytes.IndexByte(value, 0) >= 0 {
		return false, fmt.Errorf("%w: value must not contain a zero byte", ErrInvalidArgument)
	}

	leaf, err := t.descend(key)
	if err != nil {
		return false, err
	}

	idx := findLastLEQ(leaf.Keys, key)
	var newKeys []int32
	var newValues [][]byte
	if idx >= 0 && leaf.Keys[idx] == key {
		// Overwrite: build a fresh values slice rather than mutating
		// leaf.LeafValues in place, so a too-large rejection below
		// leaves the cached node untouched.
		newKeys = leaf.Keys
		newValues = append([][]byte(nil), leaf.LeafValues...)
		newValues[idx] = append([]byte(nil), value...)
	} else {
		pos := idx + 1
		newKeys = insertInt32(leaf.Keys, pos, key)
		newValues = insertBytes(leaf.LeafValues, pos, append([]byte(nil), value...))
	}

	if len(newKeys) == 1 {
		probe := pager.NewLeaf(leaf.PageID)
		probe.Keys, probe.LeafValues = newKeys, newValues
		if pager.SerializedSize(probe) > t.pageSize {
			return false, fmt.Errorf("%w: value too large for page size %d", ErrInvalidArgument, t.pageSize)
		}
	}

	leaf.Keys, leaf.LeafValues = newKeys, newValues
	if err := t.pager.PutPage(leaf.PageID, leaf); err != nil {
		return false, err
	}

	if pager.SerializedSize(leaf) <= t.pageSize {
		return true, nil
	}
	if err := t.splitUp(leaf); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes key, returning 1 if a record was removed or 0
// otherwise.
func (t *Tree) Delete(key int32) (int, error) {
	leaf, err := t.descend(key)
	if err != nil {
		return 0, err
	}
	idx := findLastLEQ(leaf.Keys, key)
	if idx < 0 || leaf.Keys[idx] != key {
		return 0, nil
	}

	leaf.Keys = removeInt32(leaf.Keys, idx)
	leaf.LeafValues = removeBytes(leaf.LeafValues, idx)
	if err := t.pager.PutPage(leaf.PageID, leaf); err != nil {
		return 0, err
	}

	if leaf.ParentID == 0 || pager.SerializedSize(leaf) >= defaultMergeSize(t.pageSize) {
		return 1, nil
	}
	if err := t.coalesceOrRedistribute(leaf); err != nil {
		return 0, err
	}
	return 1, nil
}

// fillRate walks the leaf chain left to right and reports the ratio of
// unused bytes to total leaf-region bytes on disk.
func (t *Tree) fillRate() (float64, error) {
	node, err := t.pager.GetPage(t.rootID)
	if err != nil {
		return 0, err
	}
	for !node.IsLeaf {
		if len(node.ChildIDs) == 0 {
			return 0, nil
		}
		node, err = t.pager.GetPage(node.ChildIDs[0])
		if err != nil {
			return 0, err
		}
	}

	var unused, total int
	for {
		total += t.pageSize
		unused += t.pageSize - pager.SerializedSize(node)
		if node.NextID == 0 {
			break
		}
		node, err = t.pager.GetPage(node.NextID)
		if err != nil {
			return 0, err
		}
	}
	if total == 0 {
		return 0, nil
	}
	return float64(unused) / float64(total), nil
}

// Status reports page size, root id, height, node/split/merge
// counters, and fill rate.
func (t *Tree) Status() (Status, error) {
	fr, err := t.fillRate()
	if err != nil {
		return Status{}, err
	}
	return Status{
		PageSize:   t.pageSize,
		RootPageID: t.rootID,
		Height:     t.height,
		NodeCount:  t.nodeCount,
		SplitCount: t.splitCount,
		MergeCount: t.mergeCount,
		FillRate:   fr,
	}, nil
}

// Close flushes every dirty page, persists the metadata header, and
// closes the underlying file.
func (t *Tree) Close() error {
	if err := t.persistMetadata(); err != nil {
		return err
	}
	return t.pager.Close()
}
