// Package spiflash implements flashfs.Device over a real SPI-NOR chip,
// adapted from github.com/gentam/gice's Flash/Device: the same JEDEC
// command set ([N25Q32|Table 16: Command Set], [W25Q128|8.1.2
// Instruction Set Table 1]) and status-register busy bit, reshaped from
// gice's blocking BusyWait calls into the non-blocking
// ProgramBegin/Continue/Finish plus IsReady poll that flashfs's
// cooperative Tick loop requires.
package spiflash

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"

	"github.com/rotorflight/flashfs"
)

const (
	cmdReadID             = 0x9F
	cmdRead               = 0x03
	cmdWriteEnable        = 0x06
	cmdPageProgram        = 0x02
	cmdErase4KB           = 0x20
	cmdErase64KB          = 0xD8
	cmdReadStatusRegister = 0x05

	// pageProgramMax is the largest single page-program transaction a
	// SPI-NOR part accepts; flashfs pages are written in chunks of this
	// size, same as gice.Flash.pageProgram's 256-byte limit.
	pageProgramMax = 256
)

type op int

const (
	opNone op = iota
	opProgram
	opErase
)

// chipGeometry maps a JEDEC ID to the geometry flashfs needs: an erase
// sector size and overall capacity. PageSize is the flashfs write-buffer
// granularity, independent of the 256-byte SPI page-program limit above;
// it is chosen to match the eraseSize-aligned recovery scan the core
// performs, same convention as memflash's test geometries.
type chipGeometry struct {
	name       string
	capacity   int64
	sectorSize int
	pageSize   int
}

var knownChips = map[[3]byte]chipGeometry{
	{0x20, 0xBA, 0x16}: {name: "Micron N25Q 32Mb", capacity: 4 << 20, sectorSize: 64 << 10, pageSize: 2048},
	{0xEF, 0x70, 0x18}: {name: "Winbond W25Q 128Mb", capacity: 16 << 20, sectorSize: 64 << 10, pageSize: 2048},
}

// Flash is a flashfs.Device backed by a real SPI-NOR chip reachable over
// conn, with cs asserted low for the duration of each transaction.
type Flash struct {
	conn spi.Conn
	cs   gpio.PinIO

	id   [3]byte
	name string
	geo  flashfs.Geometry

	pending     op
	programAddr int64
	programBuf  []byte
	eraseAddr   int64
}

// Open identifies the chip at conn/cs via its JEDEC ID and returns a
// ready-to-use Flash. An unrecognized ID makes Open return an error; such
// a chip can be opened with OpenWithGeometry, with the caller supplying
// capacity and geometry.
func Open(conn spi.Conn, cs gpio.PinIO) (*Flash, error) {
	f := &Flash{conn: conn, cs: cs}
	id, err := f.readID()
	if err != nil {
		return nil, err
	}
	chip, ok := knownChips[id]
	if !ok {
		return nil, fmt.Errorf("spiflash: unrecognized JEDEC ID % X", id)
	}
	f.id, f.name = id, chip.name
	f.geo = flashfs.Geometry{
		PageSize:    chip.pageSize,
		SectorSize:  chip.sectorSize,
		RegionStart: 0,
		RegionEnd:   chip.capacity,
	}
	return f, nil
}

// OpenWithGeometry bypasses JEDEC identification, for chips not in
// knownChips or test rigs that pin geometry explicitly.
func OpenWithGeometry(conn spi.Conn, cs gpio.PinIO, geo flashfs.Geometry) *Flash {
	return &Flash{conn: conn, cs: cs, geo: geo}
}

// Name reports the identified chip's marketing name, if known.
func (f *Flash) Name() string { return f.name }

// tx wraps an SPI transaction with CS assertion, same shape as
// gice.Flash.tx.
func (f *Flash) tx(buf []byte) (err error) {
	if err = f.cs.Out(gpio.Low); err != nil {
		return err
	}
	defer func() {
		if csErr := f.cs.Out(gpio.High); csErr != nil && err == nil {
			err = csErr
		}
	}()
	return f.conn.Tx(buf, buf)
}

func (f *Flash) readID() ([3]byte, error) {
	buf := make([]byte, 4)
	buf[0] = cmdReadID
	if err := f.tx(buf); err != nil {
		return [3]byte{}, err
	}
	return [3]byte(buf[1:]), nil
}

func (f *Flash) writeEnable() error {
	return f.tx([]byte{cmdWriteEnable})
}

func addr24(buf []byte, addr int64) {
	buf[0] = byte(addr >> 16)
	buf[1] = byte(addr >> 8)
	buf[2] = byte(addr)
}

// Geometry implements flashfs.Device.
func (f *Flash) Geometry() flashfs.Geometry {
	return f.geo
}

// Read implements flashfs.Device, synchronously reading len(dst) bytes.
func (f *Flash) Read(addr int64, dst []byte) error {
	buf := make([]byte, 4+len(dst))
	buf[0] = cmdRead
	addr24(buf[1:], addr)
	if err := f.tx(buf); err != nil {
		return err
	}
	copy(dst, buf[4:])
	return nil
}

// ProgramBegin implements flashfs.Device. The SPI-NOR part has no
// separate begin phase; this just stages the target address.
func (f *Flash) ProgramBegin(addr int64) error {
	if f.pending != opNone {
		return errors.New("spiflash: operation already pending")
	}
	f.pending = opProgram
	f.programAddr = addr
	f.programBuf = f.programBuf[:0]
	return nil
}

// ProgramContinue implements flashfs.Device, staging more data.
func (f *Flash) ProgramContinue(data []byte) error {
	f.programBuf = append(f.programBuf, data...)
	return nil
}

// ProgramFinish implements flashfs.Device. It issues the staged page as
// one or more 256-byte page-program commands (pageProgramMax), the same
// chunking gice.Flash.Write uses, and leaves the part busy; the caller
// polls IsReady.
func (f *Flash) ProgramFinish() error {
	addr := f.programAddr
	data := f.programBuf
	for len(data) > 0 {
		n := len(data)
		if n > pageProgramMax {
			n = pageProgramMax
		}
		if err := f.writeEnable(); err != nil {
			return err
		}
		buf := make([]byte, 3+n)
		addr24(buf, addr)
		copy(buf[3:], data[:n])
		if err := f.tx(append([]byte{cmdPageProgram}, buf...)); err != nil {
			return err
		}
		addr += int64(n)
		data = data[n:]
	}
	return nil
}

// EraseSector implements flashfs.Device, erasing the 64 KiB sector at
// addr (cmdErase64KB; a 4 KiB subsector variant, cmdErase4KB, exists in
// the same command set for parts configured with a smaller SectorSize).
func (f *Flash) EraseSector(addr int64) error {
	if f.pending != opNone {
		return errors.New("spiflash: operation already pending")
	}
	if err := f.writeEnable(); err != nil {
		return err
	}
	cmd := byte(cmdErase64KB)
	if f.geo.SectorSize <= 4<<10 {
		cmd = cmdErase4KB
	}
	buf := make([]byte, 4)
	buf[0] = cmd
	addr24(buf[1:], addr)
	if err := f.tx(buf); err != nil {
		return err
	}
	f.pending = opErase
	f.eraseAddr = addr
	return nil
}

// IsReady implements flashfs.Device by polling the status register's
// busy bit once, non-blocking (unlike gice.Flash.BusyWait, which spins
// internally; flashfs's Tick loop is the caller's busy-wait).
func (f *Flash) IsReady() bool {
	if f.pending == opNone {
		return true
	}
	buf := []byte{cmdReadStatusRegister, 0}
	if err := f.tx(buf); err != nil {
		return false
	}
	busy := buf[1]&0x01 != 0
	if busy {
		return false
	}
	f.pending = opNone
	return true
}

var _ flashfs.Device = (*Flash)(nil)
