package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/stealthrocket/unapi/internal/assert"
	"github.com/stealthrocket/unapi/internal/config"
)

var configTests = tests{
	"show the config command help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "config", "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tunapi config ")
		assert.Equal(t, stderr, "")
	},

	"the text output is the content of the configuration file": func(t *testing.T) {
		path, err := config.Path.Resolve()
		assert.OK(t, err)
		content, err := os.ReadFile(path)
		assert.OK(t, err)

		stdout, stderr, exitCode := unapiCLI(t, "config")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, string(content))
		assert.Equal(t, stderr, "")
	},

	"the json output includes default values": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "config", "-o", "json")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")

		var c struct {
			Network struct {
				Interface string `json:"interface"`
			} `json:"network"`
			TCP struct {
				Connections int `json:"connections"`
			} `json:"tcp"`
		}
		assert.OK(t, json.Unmarshal([]byte(stdout), &c))
		assert.Equal(t, c.Network.Interface, loopbackName(t))
		assert.Equal(t, c.TCP.Connections, 4)
	},

	"the yaml output can be read back": func(t *testing.T) {
		stdout, stderr, exitCode := unapiCLI(t, "config", "--output", "yaml")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")

		var c map[string]any
		assert.OK(t, yaml.Unmarshal([]byte(stdout), &c))
		assert.True(t, c["resolver"] != nil)
	},

	"the configuration path can be set on the command line": func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "other.yaml")
		assert.OK(t, os.WriteFile(path, []byte("udp:\n  connections: 7\n"), 0666))

		stdout, stderr, exitCode := unapiCLI(t, "config", "-c", path)
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, "udp:\n  connections: 7\n")
		assert.Equal(t, stderr, "")
	},

	"an invalid configuration causes an error": func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "invalid.yaml")
		assert.OK(t, os.WriteFile(path, []byte("tcp:\n  connections: 1000\n"), 0666))

		stdout, stderr, exitCode := unapiCLI(t, "-c", path, "config")
		assert.Equal(t, exitCode, 1)
		assert.Equal(t, stdout, "")
		assert.HasPrefix(t, stderr, "ERR: unapi config: tcp.connections")
	},

	"an unsupported output format causes an error": func(t *testing.T) {
		_, _, exitCode := unapiCLI(t, "config", "-o", "xml")
		assert.Equal(t, exitCode, 2)
	},
}
