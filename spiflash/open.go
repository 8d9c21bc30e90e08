package spiflash

import (
	"errors"
	"fmt"
	"sync/atomic"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/ftdi"
)

// clockRate is the FT2232H MPSSE SPI clock, [AN_135 3.2.1 Divisors],
// same value gice.NewDevice uses.
const clockRate = 30 * physic.MegaHertz

var hostInitialized atomic.Bool

// OpenFTDI finds an FT2232H-based adapter (the same part gice targets)
// and returns an identified Flash wired over its MPSSE SPI port, with
// chip-select on ADBUS4 ([EB82|Appendix A. Sheet 2 of 5] / gice's wiring).
func OpenFTDI() (*Flash, error) {
	if hostInitialized.CompareAndSwap(false, true) {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("spiflash: host init: %w", err)
		}
	}

	ft, err := findFT232H()
	if err != nil {
		return nil, err
	}
	cs := ft.D4

	port, err := ft.SPI()
	if err != nil {
		return nil, fmt.Errorf("spiflash: SPI port: %w", err)
	}
	// FTDI AN_114 1.2: the MPSSE engine only supports SPI mode 0 and
	// mode 2; mode 0 is also valid for every chip in knownChips.
	conn, err := port.Connect(clockRate, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("spiflash: SPI connect: %w", err)
	}

	return Open(conn, cs)
}

func findFT232H() (*ftdi.FT232H, error) {
	const vendorID, productID = 0x0403, 0x6010 // FTDI FT2232H

	info := ftdi.Info{}
	for _, dev := range ftdi.All() {
		dev.Info(&info)
		if info.VenID != vendorID || info.DevID != productID {
			continue
		}
		if ft, ok := dev.(*ftdi.FT232H); ok {
			return ft, nil
		}
	}
	return nil, errors.New("spiflash: no FT2232H adapter found")
}
