package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotorflight/flashfs"
	"github.com/rotorflight/flashfs/fileflash"
	"github.com/rotorflight/flashfs/memflash"
	"github.com/rotorflight/flashfs/spiflash"
)

// deviceFlags are the flags shared by every subcommand that needs to
// open a flashfs.Device, mirroring gice/cmd/gice's pattern of one
// flag.FlagSet per subcommand with a few common options.
type deviceFlags struct {
	dev        string
	pageSize   int
	sectorSize int
	regionSize int64
}

func registerDeviceFlags(fs *flag.FlagSet) *deviceFlags {
	d := &deviceFlags{regionSize: 2 * 1024 * 1024}
	fs.StringVar(&d.dev, "dev", "", "device: spi | file:<path> | mem (required)")
	fs.IntVar(&d.pageSize, "page", 2048, "write page size in bytes (file/mem devices only)")
	fs.IntVar(&d.sectorSize, "sector", 16*1024, "erase sector size in bytes (file/mem devices only)")
	fs.Func("size", "region size in bytes, accepting a K/M/G suffix (file/mem devices only, default 2M)", func(s string) error {
		n, err := parseSize(s)
		if err != nil {
			return err
		}
		d.regionSize = n
		return nil
	})
	return d
}

// open resolves -dev into a concrete flashfs.Device. The returned closer
// is nil for devices with nothing to release.
func (d *deviceFlags) open() (flashfs.Device, io.Closer, error) {
	switch {
	case d.dev == "":
		return nil, nil, fmt.Errorf("-dev is required")
	case d.dev == "mem":
		return memflash.New(d.softGeometry()), nil, nil
	case d.dev == "spi":
		f, err := spiflash.OpenFTDI()
		return f, nil, err
	case strings.HasPrefix(d.dev, "file:"):
		path := strings.TrimPrefix(d.dev, "file:")
		if path == "" {
			return nil, nil, fmt.Errorf("file: device requires a path, e.g. -dev=file:/tmp/flash.bin")
		}
		f, err := fileflash.Open(path, d.softGeometry())
		return f, f, err
	default:
		return nil, nil, fmt.Errorf("unrecognized -dev %q", d.dev)
	}
}

func (d *deviceFlags) softGeometry() flashfs.Geometry {
	return flashfs.Geometry{
		PageSize:    d.pageSize,
		SectorSize:  d.sectorSize,
		RegionStart: 0,
		RegionEnd:   d.regionSize,
	}
}

// parseSize parses a decimal byte count, accepting a K/M/G suffix for
// convenience at the command line (e.g. "2M").
func parseSize(s string) (int64, error) {
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		mult, s = 1024, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult, s = 1024*1024, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		mult, s = 1024*1024*1024, strings.TrimSuffix(s, "G")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return n * mult, nil
}
