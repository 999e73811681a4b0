// Package config loads the unapi configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/netip"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stealthrocket/unapi/internal/netenv"
	"github.com/stealthrocket/unapi/internal/print/human"
	"github.com/stealthrocket/unapi/internal/resolver"
	"github.com/stealthrocket/unapi/internal/tcp"
	"github.com/stealthrocket/unapi/internal/udp"
)

const (
	DefaultPath = "~/.unapi/config.yaml"

	// Environment variable overriding DefaultPath.
	PathEnv = "UNAPICONFIG"

	defaultResolverTimeout = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
)

// Path is the path to the configuration file.
var Path human.Path = DefaultPath

func init() {
	if path := os.Getenv(PathEnv); path != "" {
		Path = human.Path(path)
	}
}

// Load opens and reads the configuration file.
func Load() (*Config, error) {
	r, _, err := Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Read(r)
}

// Open opens the configuration file. When the file does not exist, the
// returned reader yields the default configuration.
func Open() (io.ReadCloser, string, error) {
	path, err := Path.Resolve()
	if err != nil {
		return nil, path, err
	}
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, path, err
		}
		b, _ := yaml.Marshal(Default())
		return io.NopCloser(bytes.NewReader(b)), path, nil
	}
	return f, path, nil
}

// Read reads and parses configuration. Unknown fields are rejected.
func Read(r io.Reader) (*Config, error) {
	c := Default()
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default is the default configuration.
func Default() *Config {
	c := new(Config)
	c.Resolver.Backend = resolver.SystemBackend
	c.Resolver.Timeout = human.Duration(defaultResolverTimeout)
	c.TCP.Connections = tcp.DefaultConnections
	c.TCP.WriteTimeout = human.Duration(defaultWriteTimeout)
	c.UDP.Connections = udp.DefaultConnections
	c.Log.Level = slog.LevelWarn
	return c
}

// Config is unapi configuration.
type Config struct {
	Network struct {
		Interface  Nullable[string]     `json:"interface" yaml:"interface"`
		Address    Nullable[string]     `json:"address" yaml:"address"`
		DNS        []string             `json:"dns" yaml:"dns"`
		ResolvConf Nullable[human.Path] `json:"resolvconf" yaml:"resolvconf"`
	} `json:"network" yaml:"network"`
	Resolver struct {
		Backend string         `json:"backend" yaml:"backend"`
		Timeout human.Duration `json:"timeout" yaml:"timeout"`
	} `json:"resolver" yaml:"resolver"`
	TCP struct {
		Connections  int            `json:"connections" yaml:"connections"`
		WriteTimeout human.Duration `json:"writetimeout" yaml:"writetimeout"`
	} `json:"tcp" yaml:"tcp"`
	UDP struct {
		Connections int `json:"connections" yaml:"connections"`
	} `json:"udp" yaml:"udp"`
	Trace struct {
		Enabled    bool `json:"enabled" yaml:"enabled"`
		Frames     bool `json:"frames" yaml:"frames"`
		Timestamps bool `json:"timestamps" yaml:"timestamps"`
	} `json:"trace" yaml:"trace"`
	Log struct {
		Level slog.Level `json:"level" yaml:"level"`
	} `json:"log" yaml:"log"`
}

// Validate checks values that would otherwise only be rejected when the
// driver starts.
func (c *Config) Validate() error {
	if addr, ok := c.Network.Address.Value(); ok {
		ip, err := netip.ParseAddr(addr)
		if err != nil || !ip.Is4() {
			return fmt.Errorf("network.address: not an IPv4 address: %q", addr)
		}
	}
	for _, server := range c.Network.DNS {
		if _, err := netip.ParseAddr(server); err != nil {
			return fmt.Errorf("network.dns: %w", err)
		}
	}
	switch c.Resolver.Backend {
	case resolver.SystemBackend, resolver.DirectBackend:
	default:
		return fmt.Errorf("resolver.backend: unsupported backend: %q (not one of %s, %s)",
			c.Resolver.Backend, resolver.SystemBackend, resolver.DirectBackend)
	}
	if c.Resolver.Timeout < 0 {
		return fmt.Errorf("resolver.timeout: negative duration: %v", c.Resolver.Timeout)
	}
	if n := c.TCP.Connections; n < 1 || n > tcp.MaxConnections {
		return fmt.Errorf("tcp.connections: %d is not between 1 and %d", n, tcp.MaxConnections)
	}
	if n := c.UDP.Connections; n < 1 || n > udp.MaxConnections {
		return fmt.Errorf("udp.connections: %d is not between 1 and %d", n, udp.MaxConnections)
	}
	if c.TCP.WriteTimeout <= 0 {
		return fmt.Errorf("tcp.writetimeout: must be positive: %v", c.TCP.WriteTimeout)
	}
	return nil
}

// NetworkOptions returns the options used to discover the network
// environment.
func (c *Config) NetworkOptions(logger *slog.Logger) (netenv.Options, error) {
	opts := netenv.Options{Logger: logger}
	if name, ok := c.Network.Interface.Value(); ok {
		opts.Interface = name
	}
	if addr, ok := c.Network.Address.Value(); ok {
		ip, err := netip.ParseAddr(addr)
		if err != nil {
			return opts, fmt.Errorf("network.address: %w", err)
		}
		opts.Address = ip
	}
	for _, server := range c.Network.DNS {
		ip, err := netip.ParseAddr(server)
		if err != nil {
			return opts, fmt.Errorf("network.dns: %w", err)
		}
		opts.DNS = append(opts.DNS, ip)
	}
	if path, ok := c.Network.ResolvConf.Value(); ok {
		resolved, err := path.Resolve()
		if err != nil {
			return opts, fmt.Errorf("network.resolvconf: %w", err)
		}
		opts.ResolvConf = resolved
	}
	return opts, nil
}

// NewBackend returns the name lookup backend, querying the DNS servers of env
// when the direct backend is configured.
func (c *Config) NewBackend(env *netenv.Environment) (resolver.Backend, error) {
	return resolver.NewBackend(c.Resolver.Backend, env.DNSServerAddrs(), time.Duration(c.Resolver.Timeout))
}
