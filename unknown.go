package main

import (
	"context"
)

const unknownCommand = `unapi %s: unknown command
For a list of commands available, run 'unapi help'.`

func unknown(ctx context.Context, cmd string) error {
	return usageError(unknownCommand, cmd)
}
