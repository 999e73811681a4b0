package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/stealthrocket/unapi/internal/config"
	"github.com/stealthrocket/unapi/internal/errcode"
	"github.com/stealthrocket/unapi/internal/resolver"
	"github.com/stealthrocket/unapi/internal/unapi"
)

const resolveUsage = `
Usage:	unapi resolve [options] <name>...

   Resolves host names to IPv4 addresses with the DNS functions of the driver
   (DNS_Q then DNS_S until the query completes).

Options:
   -c, --config path     Path to the unapi configuration file (overrides UNAPICONFIG)
   -h, --help            Show this usage information
   -i, --interface name  Network interface used by the driver (overrides network.interface)
       --literal         Only accept IP address literals, without sending queries
   -o, --output format   Output format, one of: text, json, yaml
   -t, --timeout dur     Time to wait for each query to complete (default to 10s)
`

// Names are written to memory at this address before calling DNS_Q.
const nameBuffer = 0x8000

func resolve(ctx context.Context, args []string) error {
	var (
		iface   string
		literal = false
		output  = outputFormat("text")
		timeout = 10 * time.Second
	)

	flagSet := newFlagSet("unapi resolve", resolveUsage)
	stringVar(flagSet, &iface, "i", "interface")
	boolVar(flagSet, &literal, "literal")
	customVar(flagSet, &output, "o", "output")
	durationVar(flagSet, &timeout, "t", "timeout")

	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return usageError("unapi resolve: expected at least one name to resolve")
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

	mem := new(unapi.RAM)
	driver, err := newDriver(c, ns, env, mem, nil, logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	var flags resolver.Flags
	if literal {
		flags |= resolver.LiteralOnly
	}

	answers := make([]answer, 0, len(args))
	failed := false
	for _, name := range args {
		a, err := lookup(ctx, driver, mem, name, flags, timeout)
		if err != nil {
			return err
		}
		failed = failed || a.Status != errcode.OK.Name()
		answers = append(answers, a)
	}

	w := newWriter(os.Stdout, output, tableWriter[answer])
	_, err = w.Write(answers)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err == nil && failed {
		err = exitCode(1)
	}
	return err
}

// answer is the result of resolving a name. ErrorCode is the code returned
// with a DNS_ERROR status, derived from the reply of the DNS server.
type answer struct {
	Name      string `json:"name" yaml:"name" text:"NAME"`
	Address   string `json:"address,omitempty" yaml:"address,omitempty" text:"ADDRESS"`
	Status    string `json:"status" yaml:"status" text:"STATUS"`
	ErrorCode uint8  `json:"errorCode,omitempty" yaml:"errorCode,omitempty" text:"-"`
}

// lookup starts a query for name and polls its status until it completes.
// The returned error is only set when ctx is canceled, failed lookups are
// reported in the answer.
func lookup(ctx context.Context, d caller, mem unapi.Memory, name string, flags resolver.Flags, timeout time.Duration) (answer, error) {
	a := answer{Name: name}

	unapi.WriteString(mem, nameBuffer, name)
	f := &unapi.Frame{B: uint8(flags)}
	f.SetHL(nameBuffer)
	if status := d.Call(unapi.DNSQuery, f); status != errcode.OK {
		a.Status = status.Name()
		return a, nil
	}
	if f.B == 1 {
		a.Address, a.Status = addrOf(f), errcode.OK.Name()
		return a, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		f := new(unapi.Frame)
		switch status := d.Call(unapi.DNSStatus, f); status {
		case errcode.OK:
			if f.B == 2 {
				a.Address, a.Status = addrOf(f), status.Name()
				return a, nil
			}
		case errcode.DNSError:
			a.Status, a.ErrorCode = status.Name(), f.B
			return a, nil
		default:
			a.Status = status.Name()
			return a, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if err := ctx.Err(); err == context.DeadlineExceeded {
				// Abort the query so it does not complete in the background.
				f := &unapi.Frame{B: uint8(resolver.Cancel)}
				f.SetHL(nameBuffer)
				d.Call(unapi.DNSQuery, f)
				a.Status = fmt.Sprintf("timeout after %s", timeout)
				return a, nil
			}
			return a, context.Cause(ctx)
		}
	}
}

func addrOf(f *unapi.Frame) string {
	return f.IP().String()
}
