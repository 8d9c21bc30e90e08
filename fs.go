package flashfs

import "fmt"

// pendingKind distinguishes which kind of asynchronous device operation,
// if any, is currently in flight. The device is a single shared
// resource: at most one program OR one erase is outstanding at a time,
// never both (§5).
type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingProgram
	pendingErase
)

// FS is the filesystem handle (component F plus the wiring described in
// §2's data-flow paragraph): head/tail/eraseFront bookkeeping, the write
// buffer, and the erase controller, bundled into one owned value instead
// of file-scope globals, per §9's design note.
type FS struct {
	dev Device
	geo Geometry
	cfg Config

	ptrs pointers

	buf []byte
	n   int

	pending     pendingKind
	pendingAddr int64

	fault error

	arming   bool // arming-time erase pass in progress (BackgroundErase == false)
	armDone  bool
	initDone bool
}

// New wires a Device and Config into an uninitialized handle. Call Init
// before any other method.
func New(dev Device, cfg Config) (*FS, error) {
	geo := dev.Geometry()
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	return &FS{
		dev: dev,
		geo: geo,
		cfg: cfg,
		buf: make([]byte, geo.PageSize),
	}, nil
}

// Init runs pointer recovery (component C) against the medium,
// reconstructing head, tail and the full flag. It must be called once
// after New, and again after Close if the handle will be reused.
func (fs *FS) Init() error {
	ptrs, err := recoverPointers(fs.dev, fs.geo)
	if err != nil {
		return err
	}
	fs.ptrs = *ptrs
	fs.n = 0
	fs.pending = pendingNone
	fs.fault = nil
	fs.arming = false
	fs.armDone = false
	fs.initDone = true
	return nil
}

// Repair reinitializes a corrupted region according to policy without
// touching the medium. Callers that chose RepairAsEmpty should follow up
// with EraseAll to actually make the medium consistent with the
// in-memory state; RepairAsFull leaves the medium untouched and sets the
// pointers as if every page were written, with one sentinel page, even
// though a corrupted medium may still hold free pages.
func (fs *FS) Repair(policy RepairPolicy) {
	ptrs := repair(fs.geo, policy)
	fs.ptrs = *ptrs
	fs.n = 0
	fs.pending = pendingNone
	fs.fault = nil
	fs.arming = false
	fs.armDone = false
	fs.initDone = true
}

// EraseAll erases every sector in the region and resets head, tail and
// eraseFront to RegionStart (§3 Lifecycle).
func (fs *FS) EraseAll() error {
	for s := int64(0); s < fs.geo.NumSectors(); s++ {
		addr := fs.geo.RegionStart + s*int64(fs.geo.SectorSize)
		if err := fs.dev.EraseSector(addr); err != nil {
			fs.latchFault(err)
			return fs.fault
		}
		for !fs.dev.IsReady() {
			// Cooperative busy-wait: EraseAll is a deliberate, bounded
			// foreground operation (formatting), not the background
			// controller, so it is allowed to block to completion.
		}
	}
	fs.ptrs = pointers{head: fs.geo.RegionStart, tail: fs.geo.RegionStart, eraseFront: fs.geo.RegionStart, full: false}
	fs.n = 0
	fs.pending = pendingNone
	fs.fault = nil
	fs.arming = false
	fs.armDone = false
	return nil
}

// TotalSize is the region's total capacity in bytes.
func (fs *FS) TotalSize() int64 {
	return fs.geo.RegionSize()
}

// FreeSpace is the circular distance from tail to head: erased bytes not
// yet claimed by the write pointer.
func (fs *FS) FreeSpace() int64 {
	return fs.geo.freeAhead(&fs.ptrs)
}

// UsedSpace is the circular distance from head to tail: live bytes.
func (fs *FS) UsedSpace() int64 {
	return fs.geo.usedSpace(&fs.ptrs)
}

// Head and Tail expose the current pointers for diagnostics and for the
// host-side export path (§6 read-out).
func (fs *FS) Head() int64 { return fs.ptrs.head }
func (fs *FS) Tail() int64 { return fs.ptrs.tail }

// Faulted reports whether the handle has latched a device fault.
func (fs *FS) Faulted() bool { return fs.fault != nil }

func (fs *FS) latchFault(err error) {
	if fs.fault == nil {
		fs.fault = fmt.Errorf("%w: %v", ErrDeviceFault, err)
	}
}

// ReadAbsolute is the synchronous host-side read-out (§6). addr is
// expected to fall in [head, tail) along the circular metric; reading
// outside that range returns whatever the medium holds (erased bytes,
// typically) and is not an error.
func (fs *FS) ReadAbsolute(addr int64, dst []byte) error {
	return fs.dev.Read(addr, dst)
}
