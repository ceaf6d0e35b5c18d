package ident

import (
	"strconv"

	"github.com/google/uuid"
)

// ID encodes a 32-bit index in the lower bits and a 32-bit generation in the
// upper bits. Generation increments on release so stale IDs never match.
type ID uint64

func NewID(index uint32, generation uint32) ID {
	return ID(uint64(generation)<<32 | uint64(index))
}

func (id ID) Index() uint32      { return uint32(id) }
func (id ID) Generation() uint32 { return uint32(id >> 32) }
func (id ID) IsZero() bool       { return id == 0 }

// String is the decimal form. Scripts see ids this way since Lua numbers
// cannot hold every 64-bit value.
func (id ID) String() string { return strconv.FormatUint(uint64(id), 10) }

// Allocator hands out entity identities.
type Allocator interface {
	Next() ID
	Release(id ID)
}

var _ Allocator = (*Pool)(nil)

// Pool allocates generational IDs from a free list. Index 0 is reserved so the
// zero ID never names a live entity. A fresh pool always yields the same sequence.
type Pool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
}

func NewPool() *Pool {
	return &Pool{
		generations: make([]uint32, 1, 256),
		freeList:    make([]uint32, 0, 64),
		nextIndex:   1,
	}
}

func (p *Pool) Next() ID {
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return NewID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 0)
	}
	return NewID(idx, p.generations[idx])
}

func (p *Pool) Alive(id ID) bool {
	idx := id.Index()
	if idx == 0 || idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == id.Generation()
}

// Release returns the index to the free list. Releasing a stale ID is a no-op.
func (p *Pool) Release(id ID) {
	if !p.Alive(id) {
		return
	}
	idx := id.Index()
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
}

// Live is the number of IDs handed out and not yet released.
func (p *Pool) Live() int {
	return int(p.nextIndex) - 1 - len(p.freeList)
}

// NewNetID returns a globally unique identity for a network sync slot.
// Peers agree on slot names out of band, so these must not collide across processes.
func NewNetID() string {
	return uuid.NewString()
}
