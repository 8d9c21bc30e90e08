package main

import (
	"flag"
	"io"
	"os"

	"github.com/rotorflight/flashfs"
)

func writeCommand(args []string) {
	fs := flag.NewFlagSet("write", flag.ExitOnError)
	dev := registerDeviceFlags(fs)
	var filename string
	var background bool
	fs.StringVar(&filename, "f", "", "input file (default: stdin)")
	fs.BoolVar(&background, "background", true, "background erase mode (false: arming-time mode)")
	fs.Parse(args)

	device, closer, err := dev.open()
	if err != nil {
		fatalf("opening device: %v", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	cfg := flashfs.DefaultConfig()
	cfg.BackgroundErase = background

	log, err := flashfs.New(device, cfg)
	if err != nil {
		fatalf("%v", err)
	}
	if err := log.Init(); err != nil {
		fatalf("init: %v", err)
	}

	if !background {
		log.BeginArmingErase()
		for !log.IsArmingEraseDone() {
			if err := log.Tick(); err != nil {
				fatalf("arming erase: %v", err)
			}
		}
	}

	input := io.Reader(os.Stdin)
	if filename != "" {
		f, err := os.Open(filename)
		if err != nil {
			fatalf("failed to open file: %v", err)
		}
		defer f.Close()
		input = f
	}

	buf := make([]byte, 4096)
	for {
		n, err := input.Read(buf)
		if n > 0 {
			if werr := log.WriteBytes(buf[:n]); werr != nil {
				fatalf("write: %v", werr)
			}
			if terr := log.Tick(); terr != nil {
				fatalf("tick: %v", terr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			fatalf("read input: %v", err)
		}
	}

	if err := log.FlushSync(); err != nil {
		fatalf("flush: %v", err)
	}
}
