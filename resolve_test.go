package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stealthrocket/unapi/internal/assert"
)

var resolveTests = tests{
	"show the resolve command help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "resolve", "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tunapi resolve ")
		assert.Equal(t, stderr, "")
	},

	"address literals are resolved without queries": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "resolve", "127.0.0.1", "10.1.2.3")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, `NAME       ADDRESS    STATUS
127.0.0.1  127.0.0.1  OK
10.1.2.3   10.1.2.3   OK
`)
		assert.Equal(t, stderr, "")
	},

	"the json output has one document per name": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "resolve", "-o", "json", "192.168.0.1")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")

		var a answer
		assert.OK(t, json.Unmarshal([]byte(stdout), &a))
		assert.Equal(t, a, answer{Name: "192.168.0.1", Address: "192.168.0.1", Status: "OK"})
	},

	"names are rejected when only literals are accepted": func(t *testing.T) {
		stdout, _, exitCode := unapiCLI(t, "resolve", "--literal", "example.com")
		assert.Equal(t, exitCode, 1)
		assert.True(t, strings.Contains(stdout, "ERR_INV_IP"))
	},

	"resolving nothing causes an error": func(t *testing.T) {
		_, _, exitCode := unapiCLI(t, "resolve")
		assert.Equal(t, exitCode, 2)
	},
}
