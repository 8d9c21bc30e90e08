package main

import (
	"flag"

	"github.com/rotorflight/flashfs"
)

func eraseCommand(args []string) {
	fs := flag.NewFlagSet("erase", flag.ExitOnError)
	dev := registerDeviceFlags(fs)
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

	if err := log.EraseAll(); err != nil {
		fatalf("erase: %v", err)
	}
}
