// Package memflash is an in-RAM emulator of flashfs.Device, with
// injectable program/erase latency. It exists purely to drive the
// package's tests without real hardware; it is the "test-only flash
// emulator" the spec's size budget explicitly excludes, grounded on
// the FlashEmulator fixture referenced (but not itself retrieved) by
// original_source's flashfs_unittest.cc.
package memflash

import "github.com/rotorflight/flashfs"

// op tracks the asynchronous operation currently in flight, mirroring
// the real three-phase program/erase state machine the core expects.
type op int

const (
	opNone op = iota
	opProgram
	opErase
)

// Flash is an in-memory flashfs.Device. Every freshly constructed Flash
// starts fully erased (0xFF). ReadyAfter controls how many IsReady polls
// a program or erase takes to settle, for exercising the core's
// busy-poll paths; zero means every operation completes instantly.
type Flash struct {
	geo   flashfs.Geometry
	mem   []byte
	Fault error // if set, the next ProgramBegin/ProgramContinue/ProgramFinish/EraseSector fails

	ReadyAfter int // number of IsReady() calls before a pending op completes; 0 = immediate

	pending      op
	programAddr  int64
	programBuf   []byte
	eraseAddr    int64
	pollsElapsed int
}

// New constructs an emulator with the given geometry, fully erased.
func New(geo flashfs.Geometry) *Flash {
	size := geo.RegionSize()
	mem := make([]byte, size)
	for i := range mem {
		mem[i] = 0xFF
	}
	return &Flash{geo: geo, mem: mem}
}

// Geometry implements flashfs.Device.
func (f *Flash) Geometry() flashfs.Geometry {
	return f.geo
}

func (f *Flash) offset(addr int64) int64 {
	return addr - f.geo.RegionStart
}

// Read implements flashfs.Device. It is synchronous and always succeeds
// for in-range addresses.
func (f *Flash) Read(addr int64, dst []byte) error {
	off := f.offset(addr)
	copy(dst, f.mem[off:off+int64(len(dst))])
	return nil
}

// ProgramBegin implements flashfs.Device.
func (f *Flash) ProgramBegin(addr int64) error {
	if f.Fault != nil {
		return f.Fault
	}
	f.pending = opProgram
	f.programAddr = addr
	f.programBuf = f.programBuf[:0]
	f.pollsElapsed = 0
	return nil
}

// ProgramContinue implements flashfs.Device.
func (f *Flash) ProgramContinue(data []byte) error {
	if f.Fault != nil {
		return f.Fault
	}
	f.programBuf = append(f.programBuf, data...)
	return nil
}

// ProgramFinish implements flashfs.Device. The actual bit-clearing
// (program can only clear bits, never set them) happens here, applied
// eagerly; IsReady merely gates when the core is allowed to observe it,
// matching how a real NOR part reports busy while its own internal
// program cycle runs.
func (f *Flash) ProgramFinish() error {
	if f.Fault != nil {
		return f.Fault
	}
	off := f.offset(f.programAddr)
	for i, b := range f.programBuf {
		f.mem[off+int64(i)] &= b
	}
	return nil
}

// EraseSector implements flashfs.Device, resetting the sector to 0xFF.
func (f *Flash) EraseSector(addr int64) error {
	if f.Fault != nil {
		return f.Fault
	}
	f.pending = opErase
	f.eraseAddr = addr
	f.pollsElapsed = 0
	off := f.offset(addr)
	for i := int64(0); i < int64(f.geo.SectorSize); i++ {
		f.mem[off+i] = 0xFF
	}
	return nil
}

// IsReady implements flashfs.Device, completing the pending op once
// ReadyAfter polls have elapsed.
func (f *Flash) IsReady() bool {
	if f.pending == opNone {
		return true
	}
	if f.pollsElapsed < f.ReadyAfter {
		f.pollsElapsed++
		return false
	}
	f.pending = opNone
	return true
}

// Fill writes a repeated byte directly into the backing memory, bypassing
// the program/erase state machine, to seed a region for pointer-recovery
// tests the way original_source's FlashEmulator::Fill does.
func (f *Flash) Fill(addr int64, b byte, n int64) {
	off := f.offset(addr)
	for i := int64(0); i < n; i++ {
		f.mem[off+i] = b
	}
}

// Bytes exposes the raw backing memory for test assertions.
func (f *Flash) Bytes() []byte {
	return f.mem
}

var _ flashfs.Device = (*Flash)(nil)
