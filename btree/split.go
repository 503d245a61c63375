package btree

import "wtfdb/pager"

// splitUp splits n, which has grown past page_max_size, and propagates
// the split upward through ancestors as long as each resulting parent
// is itself oversized, possibly creating a new root.
func (t *Tree) splitUp(n *pager.Node) error {
	for {
		mid := len(n.Keys) / 2
		rightID := t.pager.AllocatePage()

		right := &pager.Node{
			PageID: rightID,
			IsLeaf: n.IsLeaf,
			Keys:   append([]int32(nil), n.Keys[mid:]...),
		}
		if n.IsLeaf {
			right.LeafValues = append([][]byte(nil), n.LeafValues[mid:]...)
		} else {
			right.ChildIDs = append([]int64(nil), n.ChildIDs[mid:]...)
		}

		// Truncate and re-persist n before any GetPage call below can
		// trigger an eviction: n is still the dirty, oversized cache
		// entry at this point, and an eviction write-back of an
		// untruncated n would fail encodeNode's page_max_size bound.
		n.Keys = append([]int32(nil), n.Keys[:mid]...)
		if n.IsLeaf {
			n.LeafValues = append([][]byte(nil), n.LeafValues[:mid]...)
		} else {
			n.ChildIDs = append([]int64(nil), n.ChildIDs[:mid]...)
		}
		if err := t.pager.PutPage(n.PageID, n); err != nil {
			return err
		}

		if !n.IsLeaf {
			for _, cid := range right.ChildIDs {
				if err := t.reparentChild(cid, right.PageID); err != nil {
					return err
				}
			}
		}

		var parent *pager.Node
		isNewRoot := n.ParentID == 0
		if isNewRoot {
			parent = pager.NewInternal(t.pager.AllocatePage())
			t.nodeCount++
		} else {
			p, err := t.pager.GetPage(n.ParentID)
			if err != nil {
				return err
			}
			parent = p
		}
		right.ParentID = parent.PageID

		right.PrevID = n.PageID
		right.NextID = n.NextID
		if n.NextID != 0 {
			nxt, err := t.pager.GetPage(n.NextID)
			if err != nil {
				return err
			}
			nxt.PrevID = right.PageID
			if err := t.pager.PutPage(nxt.PageID, nxt); err != nil {
				return err
			}
		}
		n.NextID = right.PageID

		if len(parent.Keys) == 0 {
			parent.Keys = []int32{n.Keys[0], right.Keys[0]}
			parent.ChildIDs = []int64{n.PageID, right.PageID}
		} else {
			pos := findLastLEQ(parent.Keys, right.Keys[0]) + 1
			parent.Keys = insertInt32(parent.Keys, pos, right.Keys[0])
			parent.ChildIDs = insertInt64(parent.ChildIDs, pos, right.PageID)
		}
		n.ParentID = parent.PageID

		if err := t.pager.PutPage(n.PageID, n); err != nil {
			return err
		}
		if err := t.pager.PutPage(right.PageID, right); err != nil {
			return err
		}
		if err := t.pager.PutPage(parent.PageID, parent); err != nil {
			return err
		}
		t.splitCount++
		t.nodeCount++

		if isNewRoot {
			t.rootID = parent.PageID
			t.height++
		}

		if pager.SerializedSize(parent) <= t.pageSize {
			return nil
		}
		n = parent
	}
}
