package main

import (
	"testing"

	"github.com/stealthrocket/unapi/internal/assert"
)

var rootTests = tests{
	"invoking unapi without a command prints the introduction message": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t)
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "unapi - TCP/IP UNAPI driver for host networks\n")
		assert.Equal(t, stderr, "")
	},

	"show the unapi help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tunapi <command> ")
		assert.Equal(t, stderr, "")
	},

	"show the unapi help with the long option": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "--help")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tunapi <command> ")
		assert.Equal(t, stderr, "")
	},

	"passing an unsupported global flag causes an error": func(t *testing.T) {
		_, _, exitCode := unapiCLI(t, "-_", "version")
		assert.Equal(t, exitCode, 2)
	},
}
