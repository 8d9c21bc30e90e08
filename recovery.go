package flashfs

import "fmt"

// pageClass is the classification of a single page during boundary
// scanning: free (all 0xFF) or written (at least one non-0xFF byte).
type pageClass bool

const (
	classFree    pageClass = true
	classWritten pageClass = false
)

func isPageFree(buf []byte) bool {
	for _, b := range buf {
		if b != 0xFF {
			return false
		}
	}
	return true
}

// recoverPointers implements component C: it classifies every page in
// the region, counts the written/free transitions, and reconstructs head
// and tail from the unique boundary the invariants guarantee. It returns
// a *CorruptionError (satisfying errors.Is(err, ErrCorruption)) if more
// than one written/free boundary pair is found.
func recoverPointers(dev Device, g Geometry) (*pointers, error) {
	numPages := g.NumPages()
	classes := make([]pageClass, numPages)

	buf := make([]byte, g.PageSize)
	for i := int64(0); i < numPages; i++ {
		addr := g.pageAddr(i)
		if err := dev.Read(addr, buf); err != nil {
			return nil, fmt.Errorf("flashfs: pointer recovery: reading page at %d: %w", addr, err)
		}
		if isPageFree(buf) {
			classes[i] = classFree
		} else {
			classes[i] = classWritten
		}
	}

	// fwBoundaries lists every page b that is free while page
	// (b+1)%numPages is written: the start of a written run. wfBoundaries
	// is the mirror image: page b written, page (b+1)%numPages free, the
	// start of a free run.
	var fwBoundaries, wfBoundaries []int64
	for b := int64(0); b < numPages; b++ {
		next := (b + 1) % numPages
		switch {
		case classes[b] == classFree && classes[next] == classWritten:
			fwBoundaries = append(fwBoundaries, b)
		case classes[b] == classWritten && classes[next] == classFree:
			wfBoundaries = append(wfBoundaries, b)
		}
	}

	switch {
	case len(fwBoundaries) == 0 && len(wfBoundaries) == 0 && classes[0] == classFree:
		// Entirely free.
		return &pointers{head: g.RegionStart, tail: g.RegionStart, eraseFront: g.RegionStart, full: false}, nil

	case len(fwBoundaries) == 0 && len(wfBoundaries) == 0 && classes[0] == classWritten:
		// Entirely written: one page is reserved as a sentinel so that
		// re-boot can still find a unique boundary (§4.C step 3).
		tail := g.RegionEnd - int64(g.PageSize)
		return &pointers{head: g.RegionStart, tail: tail, eraseFront: tail, full: true}, nil

	case len(fwBoundaries) == 1 && len(wfBoundaries) == 1:
		headPage := (fwBoundaries[0] + 1) % numPages
		tailPage := (wfBoundaries[0] + 1) % numPages
		head := g.pageAddr(headPage)
		tail := g.pageAddr(tailPage)
		if head%int64(g.SectorSize) != 0 {
			return nil, newCorruptionError(
				fmt.Errorf("flashfs: recovered head %d is not sector-aligned", head),
			)
		}
		return &pointers{head: head, tail: tail, eraseFront: tail, full: false}, nil

	default:
		anomalies := make([]error, 0, len(fwBoundaries)+len(wfBoundaries))
		for _, b := range fwBoundaries {
			anomalies = append(anomalies, fmt.Errorf("flashfs: unexpected free→written boundary at page %d (addr %d)", b, g.pageAddr(b)))
		}
		for _, b := range wfBoundaries {
			anomalies = append(anomalies, fmt.Errorf("flashfs: unexpected written→free boundary at page %d (addr %d)", b, g.pageAddr(b)))
		}
		return nil, newCorruptionError(anomalies...)
	}
}

// repair resolves a corrupted region per the caller's chosen policy,
// without touching the medium itself (the caller decides separately
// whether to EraseAll).
func repair(g Geometry, policy RepairPolicy) *pointers {
	switch policy {
	case RepairAsFull:
		tail := g.RegionEnd - int64(g.PageSize)
		return &pointers{head: g.RegionStart, tail: tail, eraseFront: tail, full: true}
	default: // RepairAsEmpty
		return &pointers{head: g.RegionStart, tail: g.RegionStart, eraseFront: g.RegionStart, full: false}
	}
}
