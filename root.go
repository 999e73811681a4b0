package main

// Notes on program structure
// --------------------------
//
// unapi uses subcommands to invoke specific functionalities of the program.
// Each subcommand is implemented by a function named after the command, in a
// file of the same name (e.g. the "help" command is implemented by the help
// function in help.go).
//
// The usage message for each command is declared by a constant starting with
// the command name and followed by the suffix "Usage". For example, the usage
// message for the "help" command is declared by the constant helpUsage.
//
// The usage message contains a "Usage:	unapi <command>" section presenting
// the structure of the command. Note the tabulation separating "Usage:" and
// "unapi".

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"github.com/stealthrocket/unapi/internal/config"
	"github.com/stealthrocket/unapi/internal/netenv"
	"github.com/stealthrocket/unapi/internal/network"
	"github.com/stealthrocket/unapi/internal/print/jsonprint"
	"github.com/stealthrocket/unapi/internal/print/textprint"
	"github.com/stealthrocket/unapi/internal/print/yamlprint"
	"github.com/stealthrocket/unapi/internal/stream"
	"github.com/stealthrocket/unapi/internal/unapi"
)

const rootUsage = `unapi - TCP/IP UNAPI driver for host networks

   unapi runs Z80 programs written against the TCP/IP UNAPI, serving their
   TCP, UDP and DNS calls with the network stack of the host.

Example:

   $ unapi status
   ...

   $ unapi run --trace -- telnet.com
   ...

For a list of commands available, run 'unapi help'.`

// root is the unapi entrypoint.
func root(ctx context.Context, args ...string) int {
	flagSet := newFlagSet("unapi", helpUsage)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 2
	}

	if args = flagSet.Args(); len(args) == 0 {
		fmt.Println(rootUsage)
		return 0
	}

	var err error
	cmd, args := args[0], args[1:]
	switch cmd {
	case "config":
		err = configCmd(ctx, args)
	case "help":
		err = help(ctx, args)
	case "resolve":
		err = resolve(ctx, args)
	case "run":
		err = run(ctx, args)
	case "status":
		err = status(ctx, args)
	case "version":
		err = version(ctx, args)
	default:
		err = unknown(ctx, cmd)
	}

	switch e := err.(type) {
	case nil:
		return 0
	case exitCode:
		return int(e)
	case usage:
		fmt.Fprintf(os.Stderr, "%s\n", e)
		return 2
	default:
		if errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "ERR: unapi %s: %s\n", cmd, err)
		return 1
	}
}

// exitCode is an error type returned from command functions to indicate the
// exit code that should be returned by the program.
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("exit: %d", e)
}

// usage is an error type returned from command functions to indicate a usage
// error.
//
// Usage errors cause the program to exit with status code 2.
type usage string

func usageError(msg string, args ...any) error {
	return usage(fmt.Sprintf(msg, args...))
}

func (e usage) Error() string {
	return string(e)
}

func setEnum[T ~string](enum *T, typ string, value string, options ...string) error {
	for _, option := range options {
		if option == value {
			*enum = T(option)
			return nil
		}
	}
	return fmt.Errorf("unsupported %s: %q (not one of %s)", typ, value, strings.Join(options, ", "))
}

type outputFormat string

func (o outputFormat) String() string {
	return string(o)
}

func (o *outputFormat) Set(value string) error {
	return setEnum(o, "output format", value, "text", "json", "yaml")
}

// address is a 16 bits address of the Z80 memory, accepting the "0100h" and
// "0x0100" notations for hexadecimal values.
type address uint16

func (a address) String() string {
	return fmt.Sprintf("%04Xh", uint16(a))
}

func (a *address) Set(value string) error {
	s, base := value, 10
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s, base = s[2:], 16
	case strings.HasSuffix(s, "h"), strings.HasSuffix(s, "H"):
		s, base = s[:len(s)-1], 16
	}
	v, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return fmt.Errorf("malformed address: %q", value)
	}
	*a = address(v)
	return nil
}

// newWriter returns a writer printing values in the requested format, using
// the text writer constructed by textWriter for the text format.
func newWriter[T any](w io.Writer, format outputFormat, textWriter func(io.Writer) stream.WriteCloser[T]) stream.WriteCloser[T] {
	switch format {
	case "json":
		return jsonprint.NewWriter[T](w)
	case "yaml":
		return yamlprint.NewWriter[T](w)
	default:
		return textWriter(w)
	}
}

func textWriter[T any](w io.Writer) stream.WriteCloser[T] {
	return textprint.NewWriter[T](w)
}

func tableWriter[T any](w io.Writer) stream.WriteCloser[T] {
	return textprint.NewTableWriter[T](w)
}

func newLogger(c *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: c.Log.Level,
	}))
}

// discover builds the network environment of the driver from the
// configuration. The interface name, when not empty, overrides the one set in
// the configuration.
func discover(c *config.Config, iface string, logger *slog.Logger) (network.Namespace, *netenv.Environment, error) {
	opts, err := c.NetworkOptions(logger)
	if err != nil {
		return nil, nil, err
	}
	if iface != "" {
		opts.Interface = iface
		opts.Address = netip.Addr{}
	}
	ns := network.Host()
	env, err := netenv.Discover(ns, opts)
	if err != nil {
		return nil, nil, err
	}
	return ns, env, nil
}

// newDriver creates a driver from the configuration, attached to the memory
// mem.
func newDriver(c *config.Config, ns network.Namespace, env *netenv.Environment, mem unapi.Memory, observer unapi.Observer, logger *slog.Logger) (*unapi.Driver, error) {
	backend, err := c.NewBackend(env)
	if err != nil {
		return nil, err
	}
	return unapi.New(ns, env, mem, unapi.Options{
		TCPConnections: c.TCP.Connections,
		UDPConnections: c.UDP.Connections,
		WriteTimeout:   time.Duration(c.TCP.WriteTimeout),
		Backend:        backend,
		Observer:       observer,
		Logger:         logger,
	})
}

func newFlagSet(cmd, usage string) *flag.FlagSet {
	usage = strings.TrimSpace(usage)
	flagSet := flag.NewFlagSet(cmd, flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.Usage = func() { fmt.Println(usage) }
	customVar(flagSet, &config.Path, "c", "config")
	return flagSet
}

// parseFlags is a greedy parser which consumes all options known to f and
// returns the remaining arguments.
func parseFlags(f *flag.FlagSet, args []string) ([]string, error) {
	var unknownArgs []string
	for {
		if err := f.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, exitCode(0)
			}
			return nil, usageError("%s %s", f.Name(), err)
		}
		if args = f.Args(); len(args) == 0 {
			return unknownArgs, nil
		}
		i := slices.IndexFunc(args, func(s string) bool {
			return strings.HasPrefix(s, "-")
		})
		if i < 0 {
			i = len(args)
		} else if args[i] == "-" {
			i++
		}
		if i == 0 {
			// A "--" stopped the parser, everything after it is an argument.
			return append(unknownArgs, args...), nil
		}
		unknownArgs = append(unknownArgs, args[:i]...)
		args = args[i:]
	}
}

func boolVar(f *flag.FlagSet, dst *bool, name string, alias ...string) {
	f.BoolVar(dst, name, *dst, "")
	for _, name := range alias {
		f.BoolVar(dst, name, *dst, "")
	}
}

func stringVar(f *flag.FlagSet, dst *string, name string, alias ...string) {
	f.StringVar(dst, name, *dst, "")
	for _, name := range alias {
		f.StringVar(dst, name, *dst, "")
	}
}

func durationVar(f *flag.FlagSet, dst *time.Duration, name string, alias ...string) {
	f.DurationVar(dst, name, *dst, "")
	for _, name := range alias {
		f.DurationVar(dst, name, *dst, "")
	}
}

func customVar(f *flag.FlagSet, dst flag.Value, name string, alias ...string) {
	f.Var(dst, name, "")
	for _, name := range alias {
		f.Var(dst, name, "")
	}
}

func trimUsage(s string) string {
	return strings.TrimSpace(s)
}
