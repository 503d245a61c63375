package pager

import (
	"fmt"
	"strconv"
	"strings"
)

// MetadataSize is the fixed size, in bytes, of the reserved header
// region at the start of the database file.
const MetadataSize = 16 * 1024

// Metadata is the self-describing record persisted at offset 0. The
// reference encoding is the human-readable "key=value" textual record
// the spec allows ("any encoding that round-trips the fields is
// acceptable"): it keeps the file inspectable with a text editor, in
// the same spirit as this corpus's debug-heavy, readable-by-default
// style.
type Metadata struct {
	RootPageID  int64
	PageSize    int
	FillRate    float64
	Height      int
	NodeCount   int
	SplitCount  int
	MergeCount  int
	MaxPageID   int64
	FreePageIDs []int64
	Filename    string
}

func (m Metadata) encode() ([]byte, error) {
	free := make([]string, len(m.FreePageIDs))
	for i, id := range m.FreePageIDs {
		free[i] = strconv.FormatInt(id, 10)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "root_page_id=%d\n", m.RootPageID)
	fmt.Fprintf(&b, "page_size=%d\n", m.PageSize)
	fmt.Fprintf(&b, "fill_rate=%f\n", m.FillRate)
	fmt.Fprintf(&b, "height=%d\n", m.Height)
	fmt.Fprintf(&b, "node_count=%d\n", m.NodeCount)
	fmt.Fprintf(&b, "split_count=%d\n", m.SplitCount)
	fmt.Fprintf(&b, "merge_count=%d\n", m.MergeCount)
	fmt.Fprintf(&b, "max_page_id=%d\n", m.MaxPageID)
	fmt.Fprintf(&b, "free_page_ids=%s\n", strings.Join(free, ","))
	fmt.Fprintf(&b, "filename=%s\n", m.Filename)

	if b.Len() > MetadataSize {
		return nil, fmt.Errorf("pager: metadata record exceeds %d byte header region", MetadataSize)
	}
	buf := make([]byte, MetadataSize)
	copy(buf, b.String())
	return buf, nil
}

func decodeMetadata(buf []byte) (Metadata, error) {
	text := strings.TrimRight(string(buf), "\x00")
	var m Metadata
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		var err error
		switch key {
		case "root_page_id":
			m.RootPageID, err = strconv.ParseInt(value, 10, 64)
		case "page_size":
			m.PageSize, err = strconv.Atoi(value)
		case "fill_rate":
			m.FillRate, err = strconv.ParseFloat(value, 64)
		case "height":
			m.Height, err = strconv.Atoi(value)
		case "node_count":
			m.NodeCount, err = strconv.Atoi(value)
		case "split_count":
			m.SplitCount, err = strconv.Atoi(value)
		case "merge_count":
			m.MergeCount, err = strconv.Atoi(value)
		case "max_page_id":
			m.MaxPageID, err = strconv.ParseInt(value, 10, 64)
		case "free_page_ids":
			if value != "" {
				for _, s := range strings.Split(value, ",") {
					id, e := strconv.ParseInt(s, 10, 64)
					if e != nil {
						return Metadata{}, fmt.Errorf("%w: bad free page id %q", ErrCorruptPage, s)
					}
					m.FreePageIDs = append(m.FreePageIDs, id)
				}
			}
		case "filename":
			m.Filename = value
		}
		if err != nil {
			return Metadata{}, fmt.Errorf("%w: bad metadata field %q: %v", ErrCorruptPage, key, err)
		}
	}
	return m, nil
}
