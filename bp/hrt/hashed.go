package hrt

// Hashed is a direct-mapped history register table without tags. Addresses
// that map to the same index share a history.
type Hashed struct {
	bits    uint
	mask    uint64
	entries []uint64
}

// NewHashed creates a hashed table with size entries reporting bits of
// history. NewHashed panics if size is not positive; use New to get an error
// instead.
func NewHashed(size int, bits uint) *Hashed {
	if size <= 0 {
		panic("hrt: hashed table size must be > 0")
	}

	return &Hashed{
		bits:    bits,
		mask:    mask(bits),
		entries: make([]uint64, size),
	}
}

func (h *Hashed) index(addr uint64) uint64 {
	return addr % uint64(len(h.entries))
}

// Get returns the masked history at the slot addr maps to.
func (h *Hashed) Get(addr uint64) uint64 {
	return h.entries[h.index(addr)] & h.mask
}

// Peek is Get; a hashed table has no replacement state.
func (h *Hashed) Peek(addr uint64) uint64 {
	return h.Get(addr)
}

// Update shifts the outcome into the slot addr maps to.
func (h *Hashed) Update(addr uint64, taken bool) {
	i := h.index(addr)
	h.entries[i] = shiftIn(h.entries[i], taken)
}

// HistoryBits returns the reported history width.
func (h *Hashed) HistoryBits() uint {
	return h.bits
}

// Size returns the number of slots.
func (h *Hashed) Size() int {
	return len(h.entries)
}

// Reset zeroes every slot.
func (h *Hashed) Reset() {
	clear(h.entries)
}
