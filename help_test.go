package main

import (
	"strings"
	"testing"

	"github.com/stealthrocket/unapi/internal/assert"
)

var helpTests = tests{
	"calling help with an unknown command causes an error": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "help", "whatever")
		assert.Equal(t, exitCode, 2)
		assert.Equal(t, stdout, "")
		assert.Equal(t, stderr, "unapi help whatever: unknown command\n")
	},

	"passing an unsupported flag to the command causes an error": func(t *testing.T) {
		_, _, exitCode := unapiCLI(t, "help", "-_")
		assert.Equal(t, exitCode, 2)
	},

	"show the help command help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "help", "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tunapi <command> ")
		assert.Equal(t, stderr, "")
	},

	"show the help command help with the long option": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "help", "--help")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tunapi <command> ")
		assert.Equal(t, stderr, "")
	},

	"show the help command help after a command name": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "help", "run", "--help")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tunapi <command> ")
		assert.Equal(t, stderr, "")
	},

	"show the help of multiple commands": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "help", "status", "resolve")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tunapi status ")
		assert.True(t, strings.Contains(stdout, "\n---\nUsage:\tunapi resolve "))
		assert.Equal(t, stderr, "")
	},

	"unapi help config": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "help", "config")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tunapi config ")
		assert.Equal(t, stderr, "")
	},

	"unapi help help": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "help", "help")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tunapi <command> ")
		assert.Equal(t, stderr, "")
	},

	"unapi help resolve": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "help", "resolve")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tunapi resolve ")
		assert.Equal(t, stderr, "")
	},

	"unapi help run": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "help", "run")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tunapi run ")
		assert.Equal(t, stderr, "")
	},

	"unapi help status": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "help", "status")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tunapi status ")
		assert.Equal(t, stderr, "")
	},

	"unapi help version": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "help", "version")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tunapi version")
		assert.Equal(t, stderr, "")
	},
}
