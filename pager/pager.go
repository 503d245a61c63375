package pager

import (
	"container/list"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// DefaultPageSize is the page size used when a caller does not need to
// override it.
const DefaultPageSize = 4096

// DefaultCacheCapacity is the number of pages kept in memory when a
// caller does not need to override it.
const DefaultCacheCapacity = 64

// entry is one slot of the LRU cache: a decoded node plus whether it
// has been mutated since it was last read from or written to disk.
type entry struct {
	id    int64
	node  *Node
	dirty bool
}

// Pager owns the database file handle and mediates every page read and
// write through a bounded, strictly-LRU in-memory cache. It is the
// sole source of new page ids and the sole place sibling pages get
// written back to disk.
type Pager struct {
	file     *os.File
	path     string
	pageSize int
	capacity int

	lru   *list.List // front = most recently used, back = least recently used
	index map[int64]*list.Element

	maxPageID int64
	freeList  []int64
}

// Open creates the database file if it does not already exist, or
// opens it and reads its metadata header otherwise. The returned
// Metadata has RootPageID == 0 when the database is freshly created;
// it is the caller's (btree.Tree's) job to allocate and persist the
// initial empty leaf root in that case.
func Open(path string, pageSize int, cacheCapacity int) (*Pager, Metadata, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		log.Printf("pager: unable to open %s: %+v", path, err)
		return nil, Metadata{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	info, err := f.Stat()
	if err != nil {
		log.Printf("pager: unable to stat %s: %+v", path, err)
		f.Close()
		return nil, Metadata{}, fmt.Errorf("%w: %v", ErrIO, err)
	}

	p := &Pager{
		file:     f,
		path:     path,
		pageSize: pageSize,
		capacity: cacheCapacity,
		lru:      list.New(),
		index:    make(map[int64]*list.Element),
	}

	var meta Metadata
	if info.Size() == 0 {
		meta = Metadata{
			PageSize: pageSize,
			Filename: filepath.Base(path),
		}
	} else {
		meta, err = p.ReadMetadata()
		if err != nil {
			f.Close()
			return nil, Metadata{}, err
		}
		if meta.PageSize > 0 {
			p.pageSize = meta.PageSize
		}
		p.maxPageID = meta.MaxPageID
		p.freeList = append([]int64(nil), meta.FreePageIDs...)
	}
	return p, meta, nil
}

// PageSize reports the page size this pager was opened (or re-opened)
// with.
func (p *Pager) PageSize() int {
	return p.pageSize
}

func pageOffset(id int64, pageSize int) int64 {
	return int64(MetadataSize) + (id-1)*int64(pageSize)
}

// GetPage returns the node stored at id, decoding it from disk on a
// cache miss. The returned pointer is owned by the cache: callers that
// mutate it must call PutPage to mark it dirty so it survives
// eviction and is written back.
func (p *Pager) GetPage(id int64) (*Node, error) {
	if id <= 0 {
		return nil, ErrInvalidPageID
	}
	if el, ok := p.index[id]; ok {
		p.lru.MoveToFront(el)
		return el.Value.(*entry).node, nil
	}

	buf := make([]byte, p.pageSize)
	_, err := p.file.ReadAt(buf, pageOffset(id, p.pageSize))
	if err != nil && err != io.EOF {
		log.Printf("pager: unable to read page %d: %+v", id, err)
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	node, err := decodeNode(buf)
	if err != nil {
		// A partially decoded node must never enter the cache.
		log.Printf("pager: corrupt page %d: %+v", id, err)
		return nil, err
	}
	if err := p.insertCache(id, node, false); err != nil {
		return nil, err
	}
	return node, nil
}

// PutPage inserts or overwrites the node at id at the most-recently-used
// end of the cache and marks it dirty.
func (p *Pager) PutPage(id int64, node *Node) error {
	return p.insertCache(id, node, true)
}

func (p *Pager) insertCache(id int64, node *Node, dirty bool) error {
	if el, ok := p.index[id]; ok {
		e := el.Value.(*entry)
		e.node = node
		e.dirty = e.dirty || dirty
		p.lru.MoveToFront(el)
		return nil
	}
	if p.lru.Len() >= p.capacity {
		if err := p.evictOne(); err != nil {
			return err
		}
	}
	el := p.lru.PushFront(&entry{id: id, node: node, dirty: dirty})
	p.index[id] = el
	return nil
}

func (p *Pager) evictOne() error {
	back := p.lru.Back()
	if back == nil {
		return nil
	}
	e := back.Value.(*entry)
	if e.dirty {
		if err := p.writeNode(e.id, e.node); err != nil {
			return err
		}
	}
	p.lru.Remove(back)
	delete(p.index, e.id)
	return nil
}

func (p *Pager) writeNode(id int64, node *Node) error {
	buf, err := encodeNode(node, p.pageSize)
	if err != nil {
		log.Printf("pager: unable to encode page %d: %+v", id, err)
		return err
	}
	if _, err := p.file.WriteAt(buf, pageOffset(id, p.pageSize)); err != nil {
		log.Printf("pager: unable to write page %d to disk: %+v", id, err)
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// AllocatePage returns a free page id, reusing one from the free list
// if available, or extending the file with a fresh id otherwise. It is
// the only source of new page ids.
func (p *Pager) AllocatePage() int64 {
	if n := len(p.freeList); n > 0 {
		id := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return id
	}
	p.maxPageID++
	return p.maxPageID
}

// FreePage returns id to the free list for reuse and drops it from the
// cache without writing it back.
func (p *Pager) FreePage(id int64) {
	p.freeList = append(p.freeList, id)
	if el, ok := p.index[id]; ok {
		p.lru.Remove(el)
		delete(p.index, id)
	}
}

// Flush writes every dirty cached page back to disk, then clears the
// cache.
func (p *Pager) Flush() error {
	for el := p.lru.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		if e.dirty {
			if err := p.writeNode(e.id, e.node); err != nil {
				return err
			}
			e.dirty = false
		}
	}
	p.lru.Init()
	p.index = make(map[int64]*list.Element)
	return nil
}

// ReadMetadata reads and decodes the metadata header at offset 0.
func (p *Pager) ReadMetadata() (Metadata, error) {
	buf := make([]byte, MetadataSize)
	if _, err := p.file.ReadAt(buf, 0); err != nil && err != io.EOF {
		log.Printf("pager: unable to read metadata header: %+v", err)
		return Metadata{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	meta, err := decodeMetadata(buf)
	if err != nil {
		log.Printf("pager: corrupt metadata header: %+v", err)
	}
	return meta, err
}

// WriteMetadata persists m at offset 0, filling in MaxPageID and
// FreePageIDs from the pager's own allocator state (the caller owns
// the tree-level counters; the pager owns page allocation).
func (p *Pager) WriteMetadata(m Metadata) error {
	m.PageSize = p.pageSize
	m.MaxPageID = p.maxPageID
	m.FreePageIDs = append([]int64(nil), p.freeList...)
	buf, err := m.encode()
	if err != nil {
		return err
	}
	if _, err := p.file.WriteAt(buf, 0); err != nil {
		log.Printf("pager: unable to write metadata header: %+v", err)
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Close flushes every dirty page and closes the underlying file. It
// does not write the metadata header; callers persist metadata
// explicitly via WriteMetadata first (btree.Tree.Close does both in
// the right order).
func (p *Pager) Close() error {
	if err := p.Flush(); err != nil {
		return err
	}
	if err := p.file.Close(); err != nil {
		log.Printf("pager: unable to close %s: %+v", p.path, err)
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}
