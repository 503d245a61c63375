package btree

import "errors"

// Error kinds raised by the tree engine itself, per the spec's error
// handling design; pager.ErrInvalidPageID, pager.ErrCorruptPage and
// pager.ErrIO propagate unchanged from the pager layer below.
var (
	ErrInvalidArgument    = errors.New("btree: invalid argument")
	ErrInvariantViolation = errors.New("btree: invariant violation")
)
