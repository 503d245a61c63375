// Package pager owns the on-disk page file: it reads, writes, caches, and
// evicts fixed-size pages, allocates and frees page ids, and persists the
// database's metadata header. It has no notion of keys, ordering, or tree
// structure; that lives one layer up, in package btree.
package pager

// Node is the in-memory representation of one page: either a leaf,
// which carries byte-string payload values, or an internal node, whose
// values are the page ids of its children.
//
// A node's ParentID is 0 iff it is the root (invariant 6 of the spec);
// PrevID/NextID chain siblings within the same level. The spec only
// requires this chain on leaves, but the tree engine maintains it at
// every level so coalesce/redistribute can find a same-parent sibling
// without a parent scan.
type Node struct {
	PageID   int64
	ParentID int64
	PrevID   int64
	NextID   int64
	IsLeaf   bool

	Keys []int32

	// LeafValues holds the payload bytes for each key; populated and
	// meaningful only when IsLeaf is true.
	LeafValues [][]byte

	// ChildIDs holds the page id of the subtree routed by each key;
	// populated and meaningful only when IsLeaf is false.
	ChildIDs []int64
}

// NewLeaf returns an empty leaf node for the given page id.
func NewLeaf(pageID int64) *Node {
	return &Node{
		PageID:     pageID,
		IsLeaf:     true,
		Keys:       []int32{},
		LeafValues: [][]byte{},
	}
}

// NewInternal returns an empty internal node for the given page id.
func NewInternal(pageID int64) *Node {
	return &Node{
		PageID:   pageID,
		IsLeaf:   false,
		Keys:     []int32{},
		ChildIDs: []int64{},
	}
}

// Clone returns a deep copy of n, so callers can hand out node contents
// for read-only inspection (e.g. btree.Tree.DebugPrint) without risking
// a caller mutating the cached copy in place.
func (n *Node) Clone() *Node {
	c := &Node{
		PageID:   n.PageID,
		ParentID: n.ParentID,
		PrevID:   n.PrevID,
		NextID:   n.NextID,
		IsLeaf:   n.IsLeaf,
		Keys:     append([]int32(nil), n.Keys...),
	}
	if n.IsLeaf {
		c.LeafValues = make([][]byte, len(n.LeafValues))
		for i, v := range n.LeafValues {
			c.LeafValues[i] = append([]byte(nil), v...)
		}
	} else {
		c.ChildIDs = append([]int64(nil), n.ChildIDs...)
	}
	return c
}
