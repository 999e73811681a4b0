package main

import (
	"strings"
	"testing"

	"github.com/stealthrocket/unapi/internal/assert"
)

var versionTests = tests{
	"show the version command help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "version", "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tunapi version\n")
		assert.Equal(t, stderr, "")
	},

	"show the version command help with the long option": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "version", "--help")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tunapi version\n")
		assert.Equal(t, stderr, "")
	},

	"the version starts with the prefix unapi": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "version")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "unapi ")
		assert.Equal(t, stderr, "")
	},

	"the version number is not empty": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "version")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")

		_, version, _ := strings.Cut(stdout, " ")
		assert.NotEqual(t, strings.TrimSpace(version), "")
	},

	"passing an unsupported flag to the command causes an error": func(t *testing.T) {
		_, _, exitCode := unapiCLI(t, "version", "-_")
		assert.Equal(t, exitCode, 2)
	},
}
