package btree

import (
	"log"

	"wtfdb/pager"
)

// coalesceOrRedistribute restores the half-full invariant for an
// underfilled non-root node n by merging it with a sibling or shifting
// records across the boundary.
func (t *Tree) coalesceOrRedistribute(n *pager.Node) error {
	if n.ParentID == 0 {
		// n is the root; underflow on the root is handled by leaving
		// it as-is (spec §4.3.4 step 4) rather than here, but guard
		// defensively in case a caller reaches this directly.
		return nil
	}

	parent, err := t.pager.GetPage(n.ParentID)
	if err != nil {
		return err
	}

	var sibling *pager.Node
	siblingIsLeft := false
	if n.PrevID != 0 {
		s, err := t.pager.GetPage(n.PrevID)
		if err != nil {
			return err
		}
		if s.ParentID == n.ParentID {
			sibling, siblingIsLeft = s, true
		}
	}
	if sibling == nil && n.NextID != 0 {
		s, err := t.pager.GetPage(n.NextID)
		if err != nil {
			return err
		}
		if s.ParentID == n.ParentID {
			sibling, siblingIsLeft = s, false
		}
	}
	if sibling == nil {
		// No sibling sharing this parent: the tree is already minimal
		// at this level.
		return nil
	}

	if pager.SerializedSize(n)+pager.SerializedSize(sibling) <= t.pageSize {
		var left, right *pager.Node
		if siblingIsLeft {
			left, right = sibling, n
		} else {
			left, right = n, sibling
		}
		return t.coalesce(left, right, parent)
	}
	return t.redistribute(n, sibling, parent, siblingIsLeft)
}

// coalesce merges right into left, frees right's page, removes right's
// routing entry from parent, and recurses on parent if it is now
// itself underfilled (or adjusts the root if parent is the root).
func (t *Tree) coalesce(left, right, parent *pager.Node) error {
	left.Keys = append(left.Keys, right.Keys...)
	if left.IsLeaf {
		left.LeafValues = append(left.LeafValues, right.LeafValues...)
	} else {
		left.ChildIDs = append(left.ChildIDs, right.ChildIDs...)
		for _, cid := range right.ChildIDs {
			if err := t.reparentChild(cid, left.PageID); err != nil {
				return err
			}
		}
	}
	left.NextID = right.NextID
	if right.NextID != 0 {
		nxt, err := t.pager.GetPage(right.NextID)
		if err != nil {
			return err
		}
		nxt.PrevID = left.PageID
		if err := t.pager.PutPage(nxt.PageID, nxt); err != nil {
			return err
		}
	}

	rIdx := indexOfChild(parent.ChildIDs, right.PageID)
	if rIdx < 0 {
		log.Printf("btree: coalesce: page %d not found among parent %d's children", right.PageID, parent.PageID)
		return ErrInvariantViolation
	}
	parent.Keys = removeInt32(parent.Keys, rIdx)
	parent.ChildIDs = removeInt64(parent.ChildIDs, rIdx)

	t.pager.FreePage(right.PageID)
	if err := t.pager.PutPage(left.PageID, left); err != nil {
		return err
	}
	if err := t.pager.PutPage(parent.PageID, parent); err != nil {
		return err
	}
	t.mergeCount++
	t.nodeCount--

	if parent.ParentID == 0 {
		return t.adjustRootAfterCollapse(parent)
	}
	if pager.SerializedSize(parent) < defaultMergeSize(t.pageSize) {
		return t.coalesceOrRedistribute(parent)
	}
	return nil
}

// redistribute shifts records one at a time across the boundary between
// n and sibling until n reaches the half-full threshold, stopping early
// rather than take sibling below it (the first record always moves), and
// updates the separating routing key in parent. siblingIsLeft reports
// whether sibling lies to the left of n in key order.
func (t *Tree) redistribute(n, sibling, parent *pager.Node, siblingIsLeft bool) error {
	threshold := defaultMergeSize(t.pageSize)
	if !siblingIsLeft {
		// sibling is to n's right: move its first records to n's tail.
		for moved := 0; moved == 0 || (pager.SerializedSize(n) < threshold && len(sibling.Keys) > 1); moved++ {
			key, val, child := popFront(sibling)
			if moved > 0 && pager.SerializedSize(sibling) < threshold {
				pushFront(sibling, key, val, child)
				break
			}
			pushBack(n, key, val, child)
			if !n.IsLeaf {
				if err := t.reparentChild(child, n.PageID); err != nil {
					return err
				}
			}
		}

		idx := indexOfChild(parent.ChildIDs, sibling.PageID)
		if idx < 0 {
			log.Printf("btree: redistribute: page %d not found among parent %d's children", sibling.PageID, parent.PageID)
			return ErrInvariantViolation
		}
		parent.Keys[idx] = sibling.Keys[0]
	} else {
		// sibling is to n's left: move its last records to n's head.
		for moved := 0; moved == 0 || (pager.SerializedSize(n) < threshold && len(sibling.Keys) > 1); moved++ {
			key, val, child := popBack(sibling)
			if moved > 0 && pager.SerializedSize(sibling) < threshold {
				pushBack(sibling, key, val, child)
				break
			}
			pushFront(n, key, val, child)
			if !n.IsLeaf {
				if err := t.reparentChild(child, n.PageID); err != nil {
					return err
				}
			}
		}

		idx := indexOfChild(parent.ChildIDs, n.PageID)
		if idx < 0 {
			log.Printf("btree: redistribute: page %d not found among parent %d's children", n.PageID, parent.PageID)
			return ErrInvariantViolation
		}
		parent.Keys[idx] = n.Keys[0]
	}

	if err := t.pager.PutPage(n.PageID, n); err != nil {
		return err
	}
	if err := t.pager.PutPage(sibling.PageID, sibling); err != nil {
		return err
	}
	return t.pager.PutPage(parent.PageID, parent)
}

// reparentChild repoints the ParentID of the node at childID to
// newParentID. Used wherever a child pointer moves between internal
// nodes (splitUp, coalesce, redistribute), so the moved child's own
// parent_id never goes stale (the same bug class
// adjustRootAfterCollapse guards against).
func (t *Tree) reparentChild(childID int64, newParentID int64) error {
	child, err := t.pager.GetPage(childID)
	if err != nil {
		return err
	}
	child.ParentID = newParentID
	return t.pager.PutPage(child.PageID, child)
}

// popFront removes and returns the first record of n.
func popFront(n *pager.Node) (key int32, val []byte, child int64) {
	key = n.Keys[0]
	n.Keys = removeInt32(n.Keys, 0)
	if n.IsLeaf {
		val = n.LeafValues[0]
		n.LeafValues = removeBytes(n.LeafValues, 0)
	} else {
		child = n.ChildIDs[0]
		n.ChildIDs = removeInt64(n.ChildIDs, 0)
	}
	return key, val, child
}

// popBack removes and returns the last record of n.
func popBack(n *pager.Node) (key int32, val []byte, child int64) {
	last := len(n.Keys) - 1
	key = n.Keys[last]
	n.Keys = removeInt32(n.Keys, last)
	if n.IsLeaf {
		val = n.LeafValues[last]
		n.LeafValues = removeBytes(n.LeafValues, last)
	} else {
		child = n.ChildIDs[last]
		n.ChildIDs = removeInt64(n.ChildIDs, last)
	}
	return key, val, child
}

// pushBack appends a record to the tail of n.
func pushBack(n *pager.Node, key int32, val []byte, child int64) {
	n.Keys = append(n.Keys, key)
	if n.IsLeaf {
		n.LeafValues = append(n.LeafValues, val)
	} else {
		n.ChildIDs = append(n.ChildIDs, child)
	}
}

// pushFront prepends a record to the head of n.
func pushFront(n *pager.Node, key int32, val []byte, child int64) {
	n.Keys = insertInt32(n.Keys, 0, key)
	if n.IsLeaf {
		n.LeafValues = insertBytes(n.LeafValues, 0, val)
	} else {
		n.ChildIDs = insertInt64(n.ChildIDs, 0, child)
	}
}
