package hrt

import (
	"math/bits"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Associative is a set-associative history register table with true LRU
// replacement. Tags and recency live in an akita cache directory with one
// byte blocks, so the set of an address is addr mod numSets. Histories live
// in a parallel array indexed by block position.
type Associative struct {
	bits      uint
	mask      uint64
	indexBits uint

	directory *akitacache.DirectoryImpl
	histories []uint64
	evictions uint64
}

// NewAssociative creates a table with numSets sets of assoc ways each.
// numSets must be a power of two and assoc positive; NewAssociative panics
// otherwise. Use New to get an error instead.
func NewAssociative(numSets, assoc int, historyBits uint) *Associative {
	if numSets <= 0 || numSets&(numSets-1) != 0 {
		panic("hrt: number of sets must be a power of two")
	}
	if assoc <= 0 {
		panic("hrt: associativity must be > 0")
	}

	return &Associative{
		bits:      historyBits,
		mask:      mask(historyBits),
		indexBits: uint(bits.TrailingZeros(uint(numSets))),
		directory: akitacache.NewDirectory(
			numSets,
			assoc,
			1,
			akitacache.NewLRUVictimFinder(),
		),
		histories: make([]uint64, numSets*assoc),
	}
}

// historyIndex computes the index into histories for a block.
func (t *Associative) historyIndex(block *akitacache.Block) int {
	return block.SetID*t.directory.NumWays + block.WayID
}

func (t *Associative) lookup(addr uint64) *akitacache.Block {
	block := t.directory.Lookup(0, addr)
	if block == nil || !block.IsValid {
		return nil
	}
	return block
}

// Get returns the masked history of addr, or 0 on a miss. A hit promotes the
// entry to most recently used; a miss allocates nothing.
func (t *Associative) Get(addr uint64) uint64 {
	block := t.lookup(addr)
	if block == nil {
		return 0
	}

	t.directory.Visit(block)

	return t.histories[t.historyIndex(block)] & t.mask
}

// Peek returns the same value as Get without touching recency.
func (t *Associative) Peek(addr uint64) uint64 {
	block := t.lookup(addr)
	if block == nil {
		return 0
	}
	return t.histories[t.historyIndex(block)] & t.mask
}

// Contains reports whether addr has an entry, without touching recency.
func (t *Associative) Contains(addr uint64) bool {
	return t.lookup(addr) != nil
}

// Update shifts the outcome into the history of addr. On a miss a new most
// recently used entry starting from history 0 is inserted, evicting the
// least recently used entry of a full set.
func (t *Associative) Update(addr uint64, taken bool) {
	block := t.lookup(addr)
	if block != nil {
		i := t.historyIndex(block)
		t.histories[i] = shiftIn(t.histories[i], taken)
		t.directory.Visit(block)
		return
	}

	victim := t.directory.FindVictim(addr)
	if victim.IsValid {
		t.evictions++
	}

	victim.Tag = addr
	victim.IsValid = true
	t.histories[t.historyIndex(victim)] = shiftIn(0, taken)

	t.directory.Visit(victim)
}

// SetTags returns the tags held by a set, most recently used first.
func (t *Associative) SetTags(setID int) []uint64 {
	queue := t.directory.GetSets()[setID].LRUQueue

	tags := make([]uint64, 0, len(queue))
	for i := len(queue) - 1; i >= 0; i-- {
		if queue[i].IsValid {
			tags = append(tags, queue[i].Tag>>t.indexBits)
		}
	}

	return tags
}

// SetIndex returns the set addr maps to.
func (t *Associative) SetIndex(addr uint64) int {
	return int(addr % uint64(t.directory.NumSets))
}

// HistoryBits returns the reported history width.
func (t *Associative) HistoryBits() uint {
	return t.bits
}

// NumSets returns the number of sets.
func (t *Associative) NumSets() int {
	return t.directory.NumSets
}

// Associativity returns the number of ways per set.
func (t *Associative) Associativity() int {
	return t.directory.WayAssociativity()
}

// Len returns the number of valid entries.
func (t *Associative) Len() int {
	n := 0
	for _, set := range t.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid {
				n++
			}
		}
	}
	return n
}

// Evictions returns how many entries have been replaced since the last reset.
func (t *Associative) Evictions() uint64 {
	return t.evictions
}

// Reset invalidates every entry.
func (t *Associative) Reset() {
	t.directory.Reset()
	clear(t.histories)
	t.evictions = 0
}
