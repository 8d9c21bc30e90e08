package flashfs

// Device is the consumed flash driver interface (component A). The core
// never touches hardware directly; it is handed a Device and only ever
// polls IsReady rather than assuming a program or erase completes within
// any bound. addr/len are always absolute byte addresses within the
// region reported by Geometry.
//
// Implementations in this module: spiflash (real SPI-NOR hardware over
// periph.io, adapted from gentam/gice), fileflash (a regular file, for
// running the stack without hardware while still getting real
// cross-process persistence), and memflash (an in-RAM emulator with
// injectable latency, for unit tests).
type Device interface {
	// Geometry returns the device's fixed page/sector/region layout.
	// Implementations must return the same value for the lifetime of
	// the Device.
	Geometry() Geometry

	// Read is synchronous and never fails for in-range addresses.
	Read(addr int64, dst []byte) error

	// ProgramBegin starts an asynchronous page program at addr, which
	// must be page-aligned. ProgramContinue may be called zero or more
	// times to stream up to PageSize bytes total, then ProgramFinish
	// commits. Programming a page that is not currently free is
	// undefined. The caller must poll IsReady before issuing the next
	// operation.
	ProgramBegin(addr int64) error
	ProgramContinue(data []byte) error
	ProgramFinish() error

	// EraseSector starts an asynchronous erase of the sector at addr,
	// which must be sector-aligned.
	EraseSector(addr int64) error

	// IsReady reports whether the most recently started program or
	// erase has completed. It never blocks.
	IsReady() bool
}
