package main

import (
	"errors"
	"flag"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rotorflight/flashfs"
)

func statusCommand(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
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

	err = log.Init()
	var corruption *flashfs.CorruptionError
	if err != nil && !errors.As(err, &corruption) {
		fatalf("init: %v", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"field", "value"})
	t.AppendRow(table.Row{"total size", humanize.IBytes(uint64(log.TotalSize()))})
	t.AppendRow(table.Row{"used", humanize.IBytes(uint64(log.UsedSpace()))})
	t.AppendRow(table.Row{"free", humanize.IBytes(uint64(log.FreeSpace()))})
	t.AppendRow(table.Row{"head", log.Head()})
	t.AppendRow(table.Row{"tail", log.Tail()})
	t.AppendRow(table.Row{"eof", log.IsEOF()})
	t.AppendRow(table.Row{"faulted", log.Faulted()})
	if corruption != nil {
		t.AppendRow(table.Row{"corruption", corruption.Error()})
	}
	t.Render()
}
