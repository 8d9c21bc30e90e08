// Package fileflash backs flashfs.Device with a plain regular file,
// grounded on the os.File-backed block-device style of asig-odit's
// internal/disk.Disk and mendersoftware/mender's installer block
// device: ReadAt/WriteAt against a fixed-size backing file standing in
// for the raw device. Its purpose is letting reboot-recovery and
// long-run tests exercise flashfs.recoverPointers across real process
// restarts, without hardware.
package fileflash

import (
	"errors"
	"fmt"
	"os"

	"github.com/rotorflight/flashfs"
)

type op int

const (
	opNone op = iota
	opProgram
	opErase
)

// Flash is a flashfs.Device backed by a single fixed-size file. Program
// and erase complete synchronously within their Begin/Finish calls;
// IsReady always reports true, since a regular file has no intrinsic
// busy latency to model (memflash.ReadyAfter exists for that purpose in
// tests that need to exercise the busy-poll paths).
type Flash struct {
	f   *os.File
	geo flashfs.Geometry

	pending     op
	programAddr int64
	programBuf  []byte
}

// Open opens (or creates) path as a fileflash backing store of the given
// geometry. A newly created file is fully erased (0xFF); an existing
// file is used as-is, letting the caller re-run flashfs.FS.Init against
// state left over from a previous process.
func Open(path string, geo flashfs.Geometry) (*Flash, error) {
	existed := true
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		existed = false
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("fileflash: opening %s: %w", path, err)
	}

	fl := &Flash{f: f, geo: geo}
	if !existed {
		if err := fl.eraseAll(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return fl, nil
}

// Close releases the backing file handle.
func (f *Flash) Close() error {
	return f.f.Close()
}

func (f *Flash) eraseAll() error {
	blank := make([]byte, f.geo.SectorSize)
	for i := range blank {
		blank[i] = 0xFF
	}
	for addr := f.geo.RegionStart; addr < f.geo.RegionEnd; addr += int64(f.geo.SectorSize) {
		if _, err := f.f.WriteAt(blank, addr); err != nil {
			return fmt.Errorf("fileflash: initializing %s: %w", f.f.Name(), err)
		}
	}
	return nil
}

// Geometry implements flashfs.Device.
func (f *Flash) Geometry() flashfs.Geometry {
	return f.geo
}

// Read implements flashfs.Device.
func (f *Flash) Read(addr int64, dst []byte) error {
	_, err := f.f.ReadAt(dst, addr)
	return err
}

// ProgramBegin implements flashfs.Device.
func (f *Flash) ProgramBegin(addr int64) error {
	if f.pending != opNone {
		return errors.New("fileflash: operation already pending")
	}
	f.pending = opProgram
	f.programAddr = addr
	f.programBuf = f.programBuf[:0]
	return nil
}

// ProgramContinue implements flashfs.Device.
func (f *Flash) ProgramContinue(data []byte) error {
	f.programBuf = append(f.programBuf, data...)
	return nil
}

// ProgramFinish implements flashfs.Device. Programming can only clear
// bits, same as real NOR flash, so the write is a read-AND-write-back
// rather than a plain overwrite.
func (f *Flash) ProgramFinish() error {
	defer func() { f.pending = opNone }()

	existing := make([]byte, len(f.programBuf))
	if _, err := f.f.ReadAt(existing, f.programAddr); err != nil {
		return fmt.Errorf("fileflash: reading before program: %w", err)
	}
	for i, b := range f.programBuf {
		existing[i] &= b
	}
	if _, err := f.f.WriteAt(existing, f.programAddr); err != nil {
		return fmt.Errorf("fileflash: programming: %w", err)
	}
	return nil
}

// EraseSector implements flashfs.Device, resetting the sector to 0xFF.
func (f *Flash) EraseSector(addr int64) error {
	if f.pending != opNone {
		return errors.New("fileflash: operation already pending")
	}
	blank := make([]byte, f.geo.SectorSize)
	for i := range blank {
		blank[i] = 0xFF
	}
	if _, err := f.f.WriteAt(blank, addr); err != nil {
		return fmt.Errorf("fileflash: erasing: %w", err)
	}
	return nil
}

// IsReady implements flashfs.Device. Every operation above already ran
// to completion synchronously, so there is never anything to wait for.
func (f *Flash) IsReady() bool {
	return true
}

var _ flashfs.Device = (*Flash)(nil)
