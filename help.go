package main

import (
	"context"
	"fmt"
)

const helpUsage = `
Usage:	unapi <command> [options]

Driver Commands:
   run      Run a Z80 program with the TCP/IP UNAPI driver attached
   status   Show the network environment exposed by the driver

Network Commands:
   resolve  Resolve host names through the driver

Other Commands:
   config   View or edit the unapi configuration
   help     Show usage information about unapi commands
   version  Show the unapi version information

Global Options:
   -c, --config path  Path to the unapi configuration file (overrides UNAPICONFIG)
   -h, --help         Show usage information

For a description of each command, run 'unapi help <command>'.`

func help(ctx context.Context, args []string) error {
	flagSet := newFlagSet("unapi help", helpUsage)
	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}

	for i, cmd := range args {
		var msg string

		if i != 0 {
			fmt.Println("---")
		}

		switch cmd {
		case "config":
			msg = configUsage
		case "help":
			msg = helpUsage
		case "resolve":
			msg = resolveUsage
		case "run":
			msg = runUsage
		case "status":
			msg = statusUsage
		case "version":
			msg = versionUsage
		default:
			return usageError("unapi help %s: unknown command", cmd)
		}

		fmt.Println(trimUsage(msg))
	}

	if len(args) == 0 {
		fmt.Println(trimUsage(helpUsage))
	}
	return nil
}
