package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/rotorflight/flashfs"
)

func readCommand(args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	dev := registerDeviceFlags(fs)
	var (
		addr    int64
		n       int
		outFile string
	)
	fs.Int64Var(&addr, "addr", 0, "absolute address to start reading from")
	fs.IntVar(&n, "n", 256, "number of bytes to read")
	fs.StringVar(&outFile, "o", "", "output file (default: hexdump)")
	fs.Parse(args)

	device, closer, err := dev.open()
	if err != nil {
		fatalf("opening device: %v", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	log, err := flashfs.New(device, flashfs.DefaultConfig())
	if err != nil {
		fatalf("%v", err)
	}
	if err := log.Init(); err != nil {
		fatalf("init: %v", err)
	}

	data := make([]byte, n)
	if err := log.ReadAbsolute(addr, data); err != nil {
		fatalf("read: %v", err)
	}

	if outFile == "" {
		fmt.Println(hex.Dump(data))
		return
	}
	if err := os.WriteFile(outFile, data, 0o644); err != nil {
		fatalf("write file: %v", err)
	}
}
