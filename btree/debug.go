package btree

import (
	"fmt"
	"io"

	"wtfdb/pager"
)

// DebugPrint recursively prints the tree structure to w, in the style
// of wtfDB's original PrettyPrint: one box per node, connectors
// showing parent/child relationships. It exists for interactive
// debugging (see cmd/wtfdb) and is not part of the programmatic
// surface the spec defines.
func (t *Tree) DebugPrint(w io.Writer) error {
	root, err := t.pager.GetPage(t.rootID)
	if err != nil {
		return err
	}
	// Print from a clone so the cache-owned node can never be mutated
	// through the printer, even though the printer itself is read-only.
	return t.debugPrintNode(w, root.Clone(), "", true)
}

func (t *Tree) debugPrintNode(w io.Writer, n *pager.Node, prefix string, isLast bool) error {
	connector := "├── "
	childPrefix := prefix + "│   "
	if isLast {
		connector = "└── "
		childPrefix = prefix + "    "
	}

	if n.IsLeaf {
		fmt.Fprintf(w, "%s%sleaf page=%d keys=%v\n", prefix, connector, n.PageID, n.Keys)
		return nil
	}

	fmt.Fprintf(w, "%s%sinner page=%d keys=%v children=%v\n", prefix, connector, n.PageID, n.Keys, n.ChildIDs)
	for i, childID := range n.ChildIDs {
		child, err := t.pager.GetPage(childID)
		if err != nil {
			return err
		}
		if err := t.debugPrintNode(w, child.Clone(), childPrefix, i == len(n.ChildIDs)-1); err != nil {
			return err
		}
	}
	return nil
}
