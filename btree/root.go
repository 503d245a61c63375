package btree

import "wtfdb/pager"

// adjustRootAfterCollapse is called after a coalesce removes a routing
// entry from the root. If the root is now an internal node with a
// single child, that child's content is absorbed into the root's own
// page slot (so root_page_id stays stable and no cached ancestor
// reference dangles) and the child's page is freed. A root that is a
// leaf is left untouched here — an empty leaf root is valid and is
// never collapsed further (spec §4.3.4).
func (t *Tree) adjustRootAfterCollapse(root *pager.Node) error {
	if root.IsLeaf || len(root.ChildIDs) != 1 {
		return nil
	}

	child, err := t.pager.GetPage(root.ChildIDs[0])
	if err != nil {
		return err
	}

	root.IsLeaf = child.IsLeaf
	root.Keys = child.Keys
	root.PrevID = child.PrevID
	root.NextID = child.NextID
	if child.IsLeaf {
		root.LeafValues = child.LeafValues
		root.ChildIDs = nil
	} else {
		root.ChildIDs = child.ChildIDs
		root.LeafValues = nil
	}

	t.pager.FreePage(child.PageID)
	if err := t.pager.PutPage(root.PageID, root); err != nil {
		return err
	}
	t.height--
	t.nodeCount--

	// The absorbed content's own children, if any, still point their
	// ParentID at the freed child page id; repoint them at the root's
	// (unchanged) page id.
	if !root.IsLeaf {
		for _, cid := range root.ChildIDs {
			gc, err := t.pager.GetPage(cid)
			if err != nil {
				return err
			}
			gc.ParentID = root.PageID
			if err := t.pager.PutPage(gc.PageID, gc); err != nil {
				return err
			}
		}
	}
	return nil
}
