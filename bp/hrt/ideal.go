package hrt

// Ideal keeps a private, never evicted history for every address. It models
// no real hardware.
type Ideal struct {
	bits    uint
	mask    uint64
	entries map[uint64]uint64
}

// NewIdeal creates an empty ideal table.
func NewIdeal(bits uint) *Ideal {
	return &Ideal{
		bits:    bits,
		mask:    mask(bits),
		entries: make(map[uint64]uint64),
	}
}

// Get returns the masked history of addr, 0 if unseen.
func (t *Ideal) Get(addr uint64) uint64 {
	return t.entries[addr] & t.mask
}

// Peek is Get.
func (t *Ideal) Peek(addr uint64) uint64 {
	return t.Get(addr)
}

// Update shifts the outcome into the history of addr, creating it on first
// reference.
func (t *Ideal) Update(addr uint64, taken bool) {
	t.entries[addr] = shiftIn(t.entries[addr], taken)
}

// HistoryBits returns the reported history width.
func (t *Ideal) HistoryBits() uint {
	return t.bits
}

// Len returns the number of addresses with a recorded history.
func (t *Ideal) Len() int {
	return len(t.entries)
}

// Reset forgets every address.
func (t *Ideal) Reset() {
	clear(t.entries)
}
