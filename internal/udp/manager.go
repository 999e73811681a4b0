// Package udp implements the table of UDP connections handed out to callers
// by number. Each connection holds at most one datagram read ahead from its
// socket, so that its size can be reported before it is received.
package udp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/stealthrocket/unapi/internal/errcode"
	"github.com/stealthrocket/unapi/internal/network"
)

const (
	// AnyPort requests an ephemeral local port.
	AnyPort = 0xFFFF

	DefaultConnections = 4
	MaxConnections     = 255

	// Ports from this one up are reserved, except AnyPort.
	reservedPortMin = 0xFFF0

	// IPv4 and UDP headers.
	headerSize = 28

	maxDatagramSize = 65535
)

// Mode tells whether a connection survives closing all transient
// connections.
type Mode uint8

const (
	Transient Mode = iota
	Resident
)

// Environment reports whether the network is usable.
type Environment interface {
	NetworkAvailable() bool
}

// Datagram is a datagram received on a connection.
type Datagram struct {
	From netip.AddrPort
	Data []byte
}

type Options struct {
	// Number of connection slots, DefaultConnections if zero.
	Connections int
	// MTU of the network interface, bounding the size of outgoing
	// datagrams.
	MTU int

	Logger *slog.Logger
}

type Manager struct {
	ns      network.Namespace
	env     Environment
	mtu     int
	logger  *slog.Logger
	limiter *rate.Limiter

	mu    sync.Mutex
	slots []*conn
	buf   []byte
}

type conn struct {
	port      uint16
	transient bool
	socket    network.Socket
	next      *Datagram
}

func New(ns network.Namespace, env Environment, opts Options) (*Manager, error) {
	if opts.Connections == 0 {
		opts.Connections = DefaultConnections
	}
	if opts.Connections < 0 || opts.Connections > MaxConnections {
		return nil, fmt.Errorf("invalid number of udp connections: %d (must be between 1 and %d)", opts.Connections, MaxConnections)
	}
	if opts.MTU <= headerSize {
		return nil, fmt.Errorf("invalid mtu: %d", opts.MTU)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		ns:      ns,
		env:     env,
		mtu:     opts.MTU,
		logger:  opts.Logger,
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		slots:   make([]*conn, opts.Connections),
		buf:     make([]byte, maxDatagramSize),
	}, nil
}

// Capacity returns the number of connection slots.
func (m *Manager) Capacity() int { return len(m.slots) }

// Free returns the number of slots available to Open.
func (m *Manager) Free() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	free := 0
	for _, c := range m.slots {
		if c == nil {
			free++
		}
	}
	return free
}

// MaxDatagramSize returns the largest payload accepted by Send.
func (m *Manager) MaxDatagramSize() int { return m.mtu - headerSize }

// Open binds a connection to port and returns its number and the port it is
// bound to, which differs from port when AnyPort was requested.
func (m *Manager) Open(port uint16, mode Mode) (int, uint16, error) {
	if port == 0 || (port >= reservedPortMin && port != AnyPort) || mode > Resident {
		return 0, 0, errcode.InvalidParameter
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	index := -1
	for i, c := range m.slots {
		if c == nil {
			index = i
			break
		}
	}
	if index < 0 {
		return 0, 0, errcode.NoFreeConn
	}

	bindPort := port
	if port == AnyPort {
		bindPort = 0
	} else {
		for _, c := range m.slots {
			if c != nil && c.port == port {
				return 0, 0, errcode.ConnExists
			}
		}
	}

	socket, err := m.ns.Socket(network.INET, network.DGRAM, network.UDP)
	if err != nil {
		return 0, 0, fmt.Errorf("udp socket: %w", err)
	}
	if err := socket.Bind(&network.SockaddrInet4{Port: int(bindPort)}); err != nil {
		socket.Close()
		if errors.Is(err, network.EADDRINUSE) {
			return 0, 0, errcode.ConnExists
		}
		return 0, 0, fmt.Errorf("udp bind to port %d: %w", bindPort, err)
	}
	name, err := socket.Name()
	if err != nil {
		socket.Close()
		return 0, 0, fmt.Errorf("udp local address: %w", err)
	}

	c := &conn{
		port:      network.SockaddrAddrPort(name).Port(),
		transient: mode == Transient,
		socket:    socket,
	}
	m.slots[index] = c
	m.logger.Debug("udp connection opened",
		slog.Int("conn", index+1),
		slog.Int("port", int(c.port)))
	return index + 1, c.port, nil
}

// Close releases connection n, or all transient connections if n is zero.
func (m *Manager) Close(n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n == 0 {
		for i, c := range m.slots {
			if c != nil && c.transient {
				c.socket.Close()
				m.slots[i] = nil
			}
		}
		return nil
	}
	c := m.lookupLocked(n)
	if c == nil {
		return errcode.NoConn
	}
	c.socket.Close()
	m.slots[n-1] = nil
	return nil
}

func (m *Manager) lookupLocked(n int) *conn {
	if n < 1 || n > len(m.slots) {
		return nil
	}
	return m.slots[n-1]
}

// State returns the port connection n is bound to, whether a datagram is
// ready to be received and the size of that datagram.
func (m *Manager) State(n int) (port uint16, ready bool, size int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.lookupLocked(n)
	if c == nil {
		return 0, false, 0, errcode.NoConn
	}
	if d := m.peekLocked(c); d != nil {
		return c.port, true, len(d.Data), nil
	}
	return c.port, false, 0, nil
}

// peekLocked returns the next datagram of c without consuming it, or nil if
// none was received.
func (m *Manager) peekLocked(c *conn) *Datagram {
	if c.next != nil {
		return c.next
	}
	size, _, addr, err := c.socket.RecvFrom([][]byte{m.buf}, 0)
	if err != nil {
		if !errors.Is(err, network.EAGAIN) && m.limiter.Allow() {
			m.logger.Warn("udp receive failed",
				slog.Int("port", int(c.port)),
				slog.String("error", err.Error()))
		}
		return nil
	}
	c.next = &Datagram{
		From: network.SockaddrAddrPort(addr),
		Data: append([]byte(nil), m.buf[:size]...),
	}
	return c.next
}

// Send sends data in a single datagram to addr.
func (m *Manager) Send(n int, addr netip.AddrPort, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.lookupLocked(n)
	if c == nil {
		return errcode.NoConn
	}
	if !m.env.NetworkAvailable() {
		return errcode.NoNetwork
	}
	if len(data) > m.MaxDatagramSize() {
		return errcode.LargeDatagram
	}
	if len(data) == 0 {
		return nil
	}
	if _, err := c.socket.SendTo([][]byte{data}, network.SockaddrInet4From(addr), 0); err != nil {
		if m.limiter.Allow() {
			m.logger.Warn("udp datagram dropped",
				slog.Int("port", int(c.port)),
				slog.String("addr", addr.String()),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// Receive consumes the next datagram of connection n, truncated to size
// bytes; the rest of the datagram is discarded.
func (m *Manager) Receive(n int, size int) (Datagram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.lookupLocked(n)
	if c == nil {
		return Datagram{}, errcode.NoConn
	}
	d := m.peekLocked(c)
	if d == nil {
		return Datagram{}, errcode.NoData
	}
	c.next = nil
	if len(d.Data) > size {
		d.Data = d.Data[:max(size, 0)]
	}
	return *d, nil
}

// Shutdown closes every connection.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.slots {
		if c != nil {
			c.socket.Close()
			m.slots[i] = nil
		}
	}
	return nil
}
