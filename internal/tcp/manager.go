// Package tcp implements the table of TCP connections handed out to callers
// by number.
//
// The state of a connection is not tracked locally: it is read from the
// connection table of the host every time it is needed, except for
// connections which are listening or were closed by the manager.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/netip"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/stealthrocket/unapi/internal/errcode"
	"github.com/stealthrocket/unapi/internal/network"
)

const (
	// AnyPort requests an ephemeral local port.
	AnyPort = 0xFFFF

	DefaultConnections = 4
	MaxConnections     = 255

	DefaultWriteTimeout = 10 * time.Second

	ephemeralPortMin = 16384
	ephemeralPortMax = 32767

	pollInterval = 100 * time.Millisecond
)

// Environment reports whether the network is usable.
type Environment interface {
	NetworkAvailable() bool
}

// Params are the parameters of Open.
type Params struct {
	Remote    netip.AddrPort
	LocalPort uint16
	Passive   bool
	Resident  bool
}

// Info is the snapshot of a connection returned by State.
type Info struct {
	State     State
	Remote    netip.AddrPort
	LocalPort uint16
	Available int
}

type Options struct {
	// Number of connection slots, DefaultConnections if zero.
	Connections int
	// Time a send may block waiting for buffer space before the connection
	// is aborted, DefaultWriteTimeout if zero.
	WriteTimeout time.Duration

	Logger *slog.Logger
}

type Manager struct {
	ns           network.Namespace
	probe        network.Probe
	env          Environment
	writeTimeout time.Duration
	logger       *slog.Logger
	limiter      *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc
	tasks  errgroup.Group

	mu    sync.Mutex
	slots []*conn
}

type conn struct {
	localPort uint16
	remote    netip.AddrPort
	transient bool

	listener    network.Socket
	socket      network.Socket
	listening   bool
	established bool
	shutdown    bool
	closed      bool
}

func New(ns network.Namespace, probe network.Probe, env Environment, opts Options) (*Manager, error) {
	if opts.Connections == 0 {
		opts.Connections = DefaultConnections
	}
	if opts.Connections < 0 || opts.Connections > MaxConnections {
		return nil, fmt.Errorf("invalid number of tcp connections: %d (must be between 1 and %d)", opts.Connections, MaxConnections)
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Manager{
		ns:           ns,
		probe:        probe,
		env:          env,
		writeTimeout: opts.WriteTimeout,
		logger:       opts.Logger,
		limiter:      rate.NewLimiter(rate.Every(time.Second), 5),
		slots:        make([]*conn, opts.Connections),
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m, nil
}

// Capacity returns the number of connection slots.
func (m *Manager) Capacity() int { return len(m.slots) }

// Free returns the number of slots available to Open.
func (m *Manager) Free() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	free := 0
	for _, c := range m.slots {
		if c == nil || c.closed {
			free++
		}
	}
	return free
}

// Open creates a connection and returns its number. Establishing the
// connection continues in the background.
func (m *Manager) Open(p Params) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := -1
	for i, c := range m.slots {
		if c == nil || c.closed {
			index = i
			break
		}
	}
	if index < 0 {
		return 0, errcode.NoFreeConn
	}
	if !m.env.NetworkAvailable() {
		return 0, errcode.NoNetwork
	}

	remote := netip.AddrPortFrom(p.Remote.Addr().Unmap(), p.Remote.Port())
	unspecified := !remote.Addr().IsValid() || remote.Addr().IsUnspecified()
	if p.Passive && !unspecified {
		return 0, errcode.NotImplemented
	}
	if !p.Passive && unspecified {
		return 0, errcode.InvalidParameter
	}
	if p.Passive {
		remote = netip.AddrPort{}
	}

	ephemeral := p.LocalPort == AnyPort
	if !ephemeral && m.portInUseLocked(p.LocalPort) {
		return 0, errcode.ConnExists
	}

	c := &conn{remote: remote, transient: !p.Resident}
	socket, err := m.bind(p.LocalPort, ephemeral)
	if err != nil {
		return 0, err
	}
	name, err := socket.Name()
	if err != nil {
		socket.Close()
		return 0, fmt.Errorf("tcp local address: %w", err)
	}
	c.localPort = network.SockaddrAddrPort(name).Port()

	if p.Passive {
		if err := socket.Listen(1); err != nil {
			socket.Close()
			return 0, fmt.Errorf("tcp listen on port %d: %w", c.localPort, err)
		}
		c.listener, c.listening = socket, true
		m.tasks.Go(func() error { m.accept(c, socket); return nil })
	} else {
		c.socket = socket
		switch err := socket.Connect(network.SockaddrInet4From(remote)); {
		case err == nil:
			c.established = true
		case errors.Is(err, network.EINPROGRESS):
			m.tasks.Go(func() error { m.connect(c, socket); return nil })
		default:
			m.failLocked(c, "connect", err)
		}
	}

	m.slots[index] = c
	m.logger.Debug("tcp connection opened",
		slog.Int("conn", index+1),
		slog.Int("port", int(c.localPort)),
		slog.Bool("passive", p.Passive),
		slog.String("remote", remote.String()))
	return index + 1, nil
}

func (m *Manager) portInUseLocked(port uint16) bool {
	for _, c := range m.slots {
		if c != nil && !c.closed && c.localPort == port {
			return true
		}
	}
	return false
}

func (m *Manager) bind(port uint16, ephemeral bool) (network.Socket, error) {
	for attempt := 0; ; attempt++ {
		if ephemeral {
			for {
				port = uint16(ephemeralPortMin + rand.Intn(ephemeralPortMax-ephemeralPortMin))
				if !m.portInUseLocked(port) {
					break
				}
			}
		}

		socket, err := m.ns.Socket(network.INET, network.STREAM, network.TCP)
		if err != nil {
			return nil, fmt.Errorf("tcp socket: %w", err)
		}
		if err := socket.SetOptInt(network.SOL_SOCKET, network.SO_REUSEADDR, 1); err != nil {
			socket.Close()
			return nil, fmt.Errorf("tcp socket: %w", err)
		}
		err = socket.Bind(&network.SockaddrInet4{Port: int(port)})
		if err == nil {
			return socket, nil
		}
		socket.Close()

		if !errors.Is(err, network.EADDRINUSE) {
			return nil, fmt.Errorf("tcp bind to port %d: %w", port, err)
		}
		if !ephemeral {
			return nil, errcode.ConnExists
		}
		if attempt == 64 {
			return nil, errcode.NoFreeConn
		}
	}
}

// accept waits for one connection on the listener of c, which is closed once
// the connection is accepted.
func (m *Manager) accept(c *conn, listener network.Socket) {
	for {
		if !m.waitUntil(c, listener, network.WaitReadyRead, func() bool { return c.listening }) {
			return
		}
		socket, addr, err := listener.Accept()
		if errors.Is(err, network.EAGAIN) {
			continue
		}

		m.mu.Lock()
		switch {
		case !c.listening:
			if socket != nil {
				socket.Close()
			}
		case err != nil:
			m.failLocked(c, "accept", err)
		default:
			listener.Close()
			c.listener, c.listening = nil, false
			c.socket, c.established = socket, true
			c.remote = network.SockaddrAddrPort(addr)
		}
		m.mu.Unlock()
		return
	}
}

// connect waits for the asynchronous connect of c to complete.
func (m *Manager) connect(c *conn, socket network.Socket) {
	if !m.waitUntil(c, socket, network.WaitReadyWrite, func() bool { return c.socket == socket }) {
		return
	}
	soerr, err := socket.GetOptInt(network.SOL_SOCKET, network.SO_ERROR)
	if err == nil && soerr != 0 {
		err = network.Errno(soerr)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c.closed {
		return
	}
	if err != nil {
		m.failLocked(c, "connect", err)
		return
	}
	c.established = true
}

// waitUntil polls socket for readiness as long as cond holds on the
// connection and the manager is not closed. It reports whether the socket is
// ready; c is marked failed when polling errors.
func (m *Manager) waitUntil(c *conn, socket network.Socket, wait func(network.Socket, time.Duration) (bool, error), cond func() bool) bool {
	for {
		m.mu.Lock()
		alive := !c.closed && cond() && m.ctx.Err() == nil
		m.mu.Unlock()
		if !alive {
			return false
		}

		ready, err := wait(socket, pollInterval)
		if err != nil {
			m.mu.Lock()
			if !c.closed && cond() {
				m.failLocked(c, "poll", err)
			}
			m.mu.Unlock()
			return false
		}
		if ready {
			return true
		}
	}
}

// failLocked aborts c after an unexpected error which the caller discovers
// on its next state query.
func (m *Manager) failLocked(c *conn, op string, err error) {
	if m.limiter.Allow() {
		m.logger.Warn("tcp connection aborted",
			slog.String("op", op),
			slog.Int("port", int(c.localPort)),
			slog.String("remote", c.remote.String()),
			slog.String("error", err.Error()))
	}
	m.abortLocked(c)
}

func (m *Manager) abortLocked(c *conn) {
	if c.listener != nil {
		c.listener.Close()
		c.listener = nil
	}
	if c.socket != nil {
		c.socket.Close()
		c.socket = nil
	}
	c.listening = false
	c.closed = true
}

// closeLocked stops the listener of c, or shuts down the send side of its
// connection.
func (m *Manager) closeLocked(c *conn) {
	if c.listener != nil {
		c.listener.Close()
		c.listener = nil
	}
	c.listening = false
	if c.socket != nil && !c.shutdown {
		if err := c.socket.Shutdown(network.SHUTWR); err != nil {
			m.failLocked(c, "shutdown", err)
			return
		}
	}
	c.shutdown = true
}

// lookupLocked returns the connection numbered n, or nil if there are none or
// it was closed.
func (m *Manager) lookupLocked(n int) *conn {
	if n < 1 || n > len(m.slots) {
		return nil
	}
	if c := m.slots[n-1]; c != nil && !c.closed {
		return c
	}
	return nil
}

// Close gracefully closes connection n, or all transient connections if n is
// zero.
func (m *Manager) Close(n int) error {
	return m.each(n, func(i int, c *conn) {
		if !c.closed {
			m.closeLocked(c)
		}
	})
}

// Abort immediately releases connection n, or all transient connections if n
// is zero.
func (m *Manager) Abort(n int) error {
	return m.each(n, func(i int, c *conn) {
		m.abortLocked(c)
		m.slots[i] = nil
	})
}

func (m *Manager) each(n int, f func(int, *conn)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n == 0 {
		for i, c := range m.slots {
			if c != nil && c.transient {
				f(i, c)
			}
		}
		return nil
	}
	if n < 0 || n > len(m.slots) || m.slots[n-1] == nil {
		return errcode.NoConn
	}
	f(n-1, m.slots[n-1])
	return nil
}

// State returns a snapshot of connection n.
func (m *Manager) State(n int) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.lookupLocked(n)
	if c == nil {
		return Info{}, errcode.NoConn
	}
	state := m.stateLocked(c)
	return Info{
		State:     state,
		Remote:    c.remote,
		LocalPort: c.localPort,
		Available: m.availableLocked(c),
	}, nil
}

func (m *Manager) stateLocked(c *conn) State {
	switch {
	case c.listening:
		return Listen
	case c.closed:
		return Closed
	case c.socket == nil:
		// Listener closed before accepting a connection.
		m.abortLocked(c)
		return Closed
	}

	s, err := m.probe.LookupTCP(c.localPort, c.remote)
	switch {
	case err == nil:
		return hostState(s)
	case errors.Is(err, network.ErrNotImplemented):
		switch {
		case !c.established:
			return SynSent
		case c.shutdown:
			return FinWait2
		default:
			return Established
		}
	case errors.Is(err, network.ErrNotFound):
		m.abortLocked(c)
		return Closed
	default:
		m.failLocked(c, "probe", err)
		return Closed
	}
}

func (m *Manager) availableLocked(c *conn) int {
	if c.closed || c.listening || c.socket == nil {
		return 0
	}
	n, err := c.socket.Available()
	if err != nil {
		m.failLocked(c, "available", err)
		return 0
	}
	return n
}

// SendFlags are the options of Send.
type SendFlags uint8

const (
	// Push forces the data out without waiting for more.
	Push SendFlags = 1 << iota
	// Urgent is accepted but ignored, urgent data is not supported.
	Urgent

	reservedSendFlags = ^(Push | Urgent)
)

// Send writes data to connection n. I/O errors abort the connection
// silently.
func (m *Manager) Send(n int, data []byte, flags SendFlags) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.lookupLocked(n)
	if c == nil {
		return errcode.NoConn
	}
	if !m.stateLocked(c).CanSend() {
		return errcode.ConnState
	}
	if (flags & reservedSendFlags) != 0 {
		return errcode.InvalidParameter
	}
	if len(data) == 0 {
		return nil
	}
	if err := m.writeLocked(c, data); err != nil {
		m.failLocked(c, "send", err)
		return nil
	}
	if (flags & Push) != 0 {
		if err := flush(c.socket); err != nil {
			m.failLocked(c, "push", err)
		}
	}
	return nil
}

func (m *Manager) writeLocked(c *conn, data []byte) error {
	deadline := time.Now().Add(m.writeTimeout)
	for len(data) > 0 {
		n, err := c.socket.SendTo([][]byte{data}, nil, 0)
		if n > 0 {
			data = data[n:]
		}
		if err == nil {
			continue
		}
		if !errors.Is(err, network.EAGAIN) {
			return err
		}
		wait := time.Until(deadline)
		if wait <= 0 {
			return network.ETIMEDOUT
		}
		if _, err := network.WaitReadyWrite(c.socket, wait); err != nil {
			return err
		}
	}
	return nil
}

// Receive reads at most size bytes already received on connection n.
func (m *Manager) Receive(n int, size int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.lookupLocked(n)
	if c == nil {
		return nil, errcode.NoConn
	}
	if !m.stateLocked(c).CanReceive() {
		return nil, errcode.ConnState
	}
	count := min(m.availableLocked(c), size)
	if count <= 0 {
		return nil, nil
	}
	buf := make([]byte, count)
	rn, _, _, err := c.socket.RecvFrom([][]byte{buf}, 0)
	if err != nil {
		if !errors.Is(err, network.EAGAIN) {
			m.failLocked(c, "receive", err)
		}
		return nil, nil
	}
	return buf[:rn], nil
}

// Flush pushes the data buffered on connection n.
func (m *Manager) Flush(n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.lookupLocked(n)
	if c == nil {
		return errcode.NoConn
	}
	if !m.stateLocked(c).CanSend() {
		return errcode.ConnState
	}
	if err := flush(c.socket); err != nil {
		m.failLocked(c, "flush", err)
	}
	return nil
}

// Enabling TCP_NODELAY sends the segments held back by the Nagle algorithm.
func flush(socket network.Socket) error {
	if err := socket.SetOptInt(network.IPPROTO_TCP, network.TCP_NODELAY, 1); err != nil {
		return err
	}
	return socket.SetOptInt(network.IPPROTO_TCP, network.TCP_NODELAY, 0)
}

// Shutdown aborts every connection and waits for background tasks to
// return.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	for i, c := range m.slots {
		if c != nil {
			m.abortLocked(c)
			m.slots[i] = nil
		}
	}
	m.mu.Unlock()
	m.cancel()
	return m.tasks.Wait()
}
