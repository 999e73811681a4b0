// Package unapi implements the TCP/IP UNAPI function table on top of the
// host network.
//
// A Driver receives calls as a function number and a Frame of register
// slots. Parameter blocks and data buffers are exchanged through the caller
// Memory. Every function returns synchronously; name resolution and the
// establishment of TCP connections continue in the background and are
// observed by polling.
package unapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/stealthrocket/unapi/internal/errcode"
	"github.com/stealthrocket/unapi/internal/netenv"
	"github.com/stealthrocket/unapi/internal/network"
	"github.com/stealthrocket/unapi/internal/resolver"
	"github.com/stealthrocket/unapi/internal/tcp"
	"github.com/stealthrocket/unapi/internal/udp"
)

const (
	// EntryPoint is the address callers jump to in order to invoke a
	// function.
	EntryPoint = 0x4000
	// NameAddress is where the implementation name is found in the ROM of
	// the driver.
	NameAddress = 0x4010
	// Name is the implementation name reported by GET_INFO.
	Name = "TCP/IP UNAPI driver for host networks"

	// SpecIdentifier is the UNAPI specification implemented, used in the
	// discovery protocol.
	SpecIdentifier = "TCP/IP"

	APIVersion            = 0x0100
	ImplementationVersion = 0x0100
)

// Observer is notified of the calls made to a Driver.
type Observer interface {
	BeforeCall(fn Function, f *Frame)
	AfterCall(fn Function, f *Frame, status errcode.Code)
}

type Options struct {
	TCPConnections int
	UDPConnections int
	// Time a TCP send may block before the connection is aborted.
	WriteTimeout time.Duration
	// Backend used for name lookups, the host resolver if nil.
	Backend resolver.Backend
	// Probe reading the state of TCP connections, network.HostProbe if nil.
	Probe network.Probe

	Observer Observer
	Logger   *slog.Logger
}

// Driver dispatches TCP/IP UNAPI calls.
type Driver struct {
	id       uuid.UUID
	env      *netenv.Environment
	mem      Memory
	tcp      *tcp.Manager
	udp      *udp.Manager
	resolver *resolver.Resolver
	observer Observer
	logger   *slog.Logger
}

// New creates a driver attached to the interface described by env, reading
// and writing parameters in mem.
func New(ns network.Namespace, env *netenv.Environment, mem Memory, opts Options) (*Driver, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Backend == nil {
		opts.Backend = net.DefaultResolver
	}
	if opts.Probe == nil {
		opts.Probe = network.HostProbe()
	}

	id := uuid.New()
	logger := opts.Logger.With(slog.String("session", id.String()))

	tcpManager, err := tcp.New(ns, opts.Probe, env, tcp.Options{
		Connections:  opts.TCPConnections,
		WriteTimeout: opts.WriteTimeout,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	udpManager, err := udp.New(ns, env, udp.Options{
		Connections: opts.UDPConnections,
		MTU:         env.MTU,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	d := &Driver{
		id:       id,
		env:      env,
		mem:      mem,
		tcp:      tcpManager,
		udp:      udpManager,
		resolver: resolver.New(env, opts.Backend, logger),
		observer: opts.Observer,
		logger:   logger,
	}
	logger.Info("driver started",
		slog.String("interface", env.Interface),
		slog.String("address", env.Address.String()),
		slog.Int("mtu", env.MTU))
	return d, nil
}

// ID returns the session identifier of the driver, included in its logs.
func (d *Driver) ID() uuid.UUID { return d.id }

// Call invokes function fn with the registers in f, which is updated with
// the results. The returned status is what the caller receives in A.
func (d *Driver) Call(fn Function, f *Frame) errcode.Code {
	if d.observer != nil {
		d.observer.BeforeCall(fn, f)
	}
	status := d.call(fn, f)
	if d.observer != nil {
		d.observer.AfterCall(fn, f, status)
	}
	return status
}

func (d *Driver) call(fn Function, f *Frame) errcode.Code {
	if !fn.Implemented() {
		return errcode.NotImplemented
	}
	err := handlers[fn](d, f)
	var code errcode.Code
	if err != nil && !errors.As(err, &code) {
		d.logger.Warn("call failed",
			slog.String("function", fn.String()),
			slog.String("error", err.Error()))
	}
	return errcode.Of(err)
}

// Close releases every connection and cancels the query in progress,
// waiting for background tasks to return.
func (d *Driver) Close() error {
	err := errors.Join(
		d.tcp.Shutdown(),
		d.udp.Shutdown(),
		d.resolver.Close(),
	)
	if err != nil {
		return fmt.Errorf("closing driver: %w", err)
	}
	d.logger.Info("driver stopped")
	return nil
}
