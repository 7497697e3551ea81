package tailring

// Ring is a bounded byte ring that keeps the most recent bytes written,
// evicting from the front when the ceiling is exceeded. It is the live tail
// of the log stream: purely observational, never a durability substitute.
//
// Callers provide their own synchronization; indexing follows the masked
// monotonic-counter scheme (size must be a power of two).
type Ring struct {
	buf  []byte
	mask uint32
	rd   uint32 // consumer index (monotonic)
	wr   uint32 // producer index (monotonic)
}

func New(size int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("tailring: size must be power of two >= 2")
	}
	return &Ring{
		buf:  make([]byte, size),
		mask: uint32(size - 1),
	}
}

func (r *Ring) size() uint32 { return uint32(len(r.buf)) }

// Len returns the number of retained bytes.
func (r *Ring) Len() int { return int(r.wr - r.rd) }

// Cap returns the ceiling.
func (r *Ring) Cap() int { return len(r.buf) }

// Append adds p, discarding oldest bytes first so the total never exceeds
// the ceiling. If p alone exceeds the ceiling only its tail is kept.
func (r *Ring) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	size := int(r.size())
	if len(p) >= size {
		p = p[len(p)-size:]
	}
	// Evict from the front until p fits.
	avail := int(r.wr - r.rd)
	if over := avail + len(p) - size; over > 0 {
		r.rd += uint32(over)
	}

	n := len(p)
	wrIdx := r.wr & r.mask
	first := size - int(wrIdx)
	if first > n {
		first = n
	}
	copy(r.buf[wrIdx:int(wrIdx)+first], p[:first])
	if second := n - first; second > 0 {
		copy(r.buf[:second], p[first:])
	}
	r.wr += uint32(n)
}

// Bytes returns a copy of the retained bytes, oldest first.
func (r *Ring) Bytes() []byte {
	n := int(r.wr - r.rd)
	out := make([]byte, n)
	size := int(r.size())
	rdIdx := r.rd & r.mask
	first := size - int(rdIdx)
	if first > n {
		first = n
	}
	copy(out[:first], r.buf[rdIdx:int(rdIdx)+first])
	if second := n - first; second > 0 {
		copy(out[first:], r.buf[:second])
	}
	return out
}

// Reset discards all retained bytes.
func (r *Ring) Reset() { r.rd = r.wr }
