package ecs

// ID is the 32-bit identifier shared by entities and hashed configuration
// keys. Zero is the null id.
//
// Pool-allocated ids encode a 20-bit index in the lower bits and a 12-bit
// generation in the upper bits. Generation increments on destroy to
// invalidate stale refs.
type ID uint32

const (
	indexBits      = 20
	indexMask      = 1<<indexBits - 1
	generationMask = 1<<(32-indexBits) - 1
)

func NewID(index uint32, generation uint32) ID {
	return ID((generation&generationMask)<<indexBits | index&indexMask)
}

func (id ID) Index() uint32      { return uint32(id) & indexMask }
func (id ID) Generation() uint32 { return uint32(id) >> indexBits }
func (id ID) IsZero() bool       { return id == 0 }

// Pool manages entity allocation with generational indices and a free list.
// Index 0 is never handed out so no allocated id equals the null id.
type Pool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
	live        int
}

func NewPool() *Pool {
	return &Pool{
		generations: make([]uint32, 1, 1024),
		freeList:    make([]uint32, 0, 256),
		nextIndex:   1,
	}
}

func (p *Pool) Create() ID {
	p.live++
	if len(p.freeList) > 0 {
		idx := p.freeList[0]
		p.freeList = p.freeList[1:]
		return NewID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	if idx > indexMask {
		panic("ecs: entity index space exhausted")
	}
	p.nextIndex++
	p.generations = append(p.generations, 1)
	return NewID(idx, p.generations[idx])
}

func (p *Pool) Alive(id ID) bool {
	idx := id.Index()
	if idx == 0 || idx >= p.nextIndex {
		return false
	}
	return p.generations[idx]&generationMask == id.Generation()
}

// Retired reports whether id was handed out once and has since been destroyed.
func (p *Pool) Retired(id ID) bool {
	idx := id.Index()
	if idx == 0 || idx >= p.nextIndex {
		return false
	}
	return p.generations[idx]&generationMask != id.Generation()
}

func (p *Pool) Destroy(id ID) {
	if !p.Alive(id) {
		return // already destroyed (stale reference)
	}
	idx := id.Index()
	p.generations[idx]++
	if p.generations[idx]&generationMask == 0 {
		p.generations[idx]++
	}
	p.freeList = append(p.freeList, idx)
	p.live--
}

// Len returns the number of live ids.
func (p *Pool) Len() int { return p.live }
