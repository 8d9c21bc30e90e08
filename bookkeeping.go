package flashfs

// pointers holds the circular head/tail/eraseFront bookkeeping (component
// F). head is sector-aligned; tail is page-aligned while the stream is
// idle; eraseFront is one-past the last sector whose erase has completed.
// full distinguishes "head == tail because the region is empty" from
// "head == tail because every page is written".
type pointers struct {
	head       int64
	tail       int64
	eraseFront int64
	full       bool
}

// empty reports whether the region holds no live data.
func (p *pointers) empty() bool {
	return p.head == p.tail && !p.full
}

// freeAhead is the circular distance from tail forward to head: how much
// erased space is available before the writer would catch the reader.
func (g Geometry) freeAhead(p *pointers) int64 {
	if p.full {
		return 0
	}
	if p.head == p.tail && !p.full {
		return g.RegionSize()
	}
	return g.circularDistance(p.tail, p.head)
}

// usedSpace is the circular distance from head forward to tail: how much
// of the region holds live data.
func (g Geometry) usedSpace(p *pointers) int64 {
	if p.full {
		return g.RegionSize()
	}
	return g.circularDistance(p.head, p.tail)
}

// advanceTail moves tail forward by n bytes (a completed page program)
// and sets full if it has caught up to head.
func (g Geometry) advanceTail(p *pointers, n int64) {
	p.tail = g.addMod(p.tail, n)
	if p.tail == p.head {
		p.full = true
	}
}

// advanceHead moves head forward by one sector (a completed erase
// reclaiming the oldest sector) and clears full, since there is now free
// space again.
func (g Geometry) advanceHead(p *pointers) {
	p.head = g.addMod(p.head, int64(g.SectorSize))
	p.full = false
}
