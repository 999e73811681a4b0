package main

import (
	"context"
	"fmt"
	"os"

	"github.com/stealthrocket/unapi/internal/config"
	"github.com/stealthrocket/unapi/internal/debug"
	"github.com/stealthrocket/unapi/internal/unapi"
	"github.com/stealthrocket/unapi/internal/z80host"
)

const runUsage = `
Usage:	unapi run [options] [--] <program>

   Loads a Z80 program in memory and runs it until it halts. The program finds
   the driver through the extended BIOS hook (EXTBIO at FFCAh) and calls its
   entry point (4000h) to use the network of the host.

Options:
   -c, --config path     Path to the unapi configuration file (overrides UNAPICONFIG)
   -h, --help            Show this usage information
   -i, --interface name  Network interface used by the driver (overrides network.interface)
   -l, --load address    Address where the program is loaded and started (default to 0100h)
   -T, --trace           Print the driver calls made by the program to stderr
       --trace-frames    Include the register slots of each call in the trace
       --trace-time      Prefix each trace line with a timestamp
`

func run(ctx context.Context, args []string) error {
	var (
		iface       string
		load        = address(z80host.DefaultLoadAddress)
		trace       = false
		traceFrames = false
		traceTime   = false
	)

	flagSet := newFlagSet("unapi run", runUsage)
	stringVar(flagSet, &iface, "i", "interface")
	customVar(flagSet, &load, "l", "load")
	boolVar(flagSet, &trace, "T", "trace")
	boolVar(flagSet, &traceFrames, "trace-frames")
	boolVar(flagSet, &traceTime, "trace-time")

	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return usageError("unapi run: expected exactly one program to run")
	}

	program, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	c, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(c)

	ns, env, err := discover(c, iface, logger)
	if err != nil {
		return err
	}

	var observer unapi.Observer
	if trace = trace || c.Trace.Enabled; trace {
		tracer := debug.NewTracer(os.Stderr)
		tracer.TraceFrames(traceFrames || c.Trace.Frames)
		tracer.EnableTimestamps(traceTime || c.Trace.Timestamps)
		tracer.RelativeTimestamps(true)
		observer = tracer
	}

	mem := new(unapi.RAM)
	driver, err := newDriver(c, ns, env, mem, observer, logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	machine := z80host.New(mem, driver, z80host.Options{Logger: logger})
	if err := machine.Load(uint16(load), program); err != nil {
		return err
	}
	if err := machine.Run(ctx, uint16(load)); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return nil
}
