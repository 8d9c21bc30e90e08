package flashfs

import "fmt"

// Geometry derives page size, sector size, and region bounds from the
// device (component B). The region is assumed sector-aligned at both
// ends; SectorSize must be an exact multiple of PageSize and the region
// size an exact multiple of SectorSize.
type Geometry struct {
	PageSize    int
	SectorSize  int
	RegionStart int64
	RegionEnd   int64
}

// RegionSize is the region's total byte length.
func (g Geometry) RegionSize() int64 {
	return g.RegionEnd - g.RegionStart
}

// NumPages is the total number of pages in the region.
func (g Geometry) NumPages() int64 {
	return g.RegionSize() / int64(g.PageSize)
}

// NumSectors is the total number of sectors in the region.
func (g Geometry) NumSectors() int64 {
	return g.RegionSize() / int64(g.SectorSize)
}

// PagesPerSector is the program/erase granularity ratio.
func (g Geometry) PagesPerSector() int64 {
	return int64(g.SectorSize / g.PageSize)
}

// Validate checks the alignment and divisibility invariants the rest of
// the package relies on.
func (g Geometry) Validate() error {
	if g.PageSize <= 0 || g.SectorSize <= 0 {
		return fmt.Errorf("flashfs: page size and sector size must be positive, got page=%d sector=%d", g.PageSize, g.SectorSize)
	}
	if g.SectorSize%g.PageSize != 0 {
		return fmt.Errorf("flashfs: sector size %d is not a multiple of page size %d", g.SectorSize, g.PageSize)
	}
	if g.RegionEnd <= g.RegionStart {
		return fmt.Errorf("flashfs: empty or inverted region [%d, %d)", g.RegionStart, g.RegionEnd)
	}
	size := g.RegionSize()
	if size%int64(g.SectorSize) != 0 {
		return fmt.Errorf("flashfs: region size %d is not a multiple of sector size %d", size, g.SectorSize)
	}
	if g.RegionStart%int64(g.SectorSize) != 0 {
		return fmt.Errorf("flashfs: region start %d is not sector-aligned", g.RegionStart)
	}
	return nil
}

// pageIndex returns the zero-based page index of addr within the region.
func (g Geometry) pageIndex(addr int64) int64 {
	return (addr - g.RegionStart) / int64(g.PageSize)
}

// pageAddr is the inverse of pageIndex.
func (g Geometry) pageAddr(idx int64) int64 {
	return g.RegionStart + idx*int64(g.PageSize)
}

// sectorAddr rounds addr down to its containing sector's start address.
func (g Geometry) sectorAddr(addr int64) int64 {
	offset := addr - g.RegionStart
	sectorOffset := offset - offset%int64(g.SectorSize)
	return g.RegionStart + sectorOffset
}

// circularDistance is the forward distance travelling from `from` to `to`
// along the region, wrapping at RegionEnd back to RegionStart.
func (g Geometry) circularDistance(from, to int64) int64 {
	d := to - from
	if d < 0 {
		d += g.RegionSize()
	}
	return d
}

// addMod advances addr by n bytes, wrapping within the region.
func (g Geometry) addMod(addr, n int64) int64 {
	size := g.RegionSize()
	offset := (addr - g.RegionStart + n) % size
	if offset < 0 {
		offset += size
	}
	return g.RegionStart + offset
}
