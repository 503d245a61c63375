package pager

import "errors"

// Error kinds raised by the pager, per the spec's error handling design:
// InvalidPageId and CorruptPage surface directly to the caller; I/O
// failures are returned wrapping ErrIO (so errors.Is(err, ErrIO) holds)
// with the underlying os error's text appended. The os error itself is
// not wrapped, so errors.Is/As against it does not match.
var (
	ErrInvalidPageID = errors.New("pager: invalid page id")
	ErrCorruptPage   = errors.New("pager: corrupt page")
	ErrPageTooSmall  = errors.New("pager: node does not fit in one page")
	ErrIO            = errors.New("pager: io error")
)
