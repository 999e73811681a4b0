// Package network exposes the host networking facilities used by the
// connection managers behind small capability interfaces.
//
// Sockets created by a Namespace are always non-blocking; operations that
// cannot complete immediately return EAGAIN (or EINPROGRESS for connect)
// and callers use WaitReadyRead/WaitReadyWrite to wait for readiness.
package network

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
)

var (
	ErrInterfaceNotFound = errors.New("network interface not found")
)

type Socket interface {
	Family() Family

	Type() Socktype

	Fd() int

	Close() error

	Bind(addr Sockaddr) error

	Listen(backlog int) error

	Connect(addr Sockaddr) error

	Accept() (Socket, Sockaddr, error)

	Name() (Sockaddr, error)

	RecvFrom(iovs [][]byte, flags int) (n, rflags int, addr Sockaddr, err error)

	SendTo(iovs [][]byte, addr Sockaddr, flags int) (int, error)

	Shutdown(how int) error

	SetOptInt(level, name, value int) error

	GetOptInt(level, name int) (int, error)

	// Available returns the number of bytes queued in the receive buffer of
	// the socket. For datagram sockets it is the size of the next datagram
	// on most systems.
	Available() (int, error)
}

type Socktype uint8

type Family uint8

func (f Family) String() string {
	if f == INET {
		return "INET"
	}
	return "UNSPEC"
}

type Protocol uint16

const (
	UNSPEC Protocol = 0
	TCP    Protocol = 6
	UDP    Protocol = 17
)

type Namespace interface {
	InterfaceByName(name string) (Interface, error)

	Interfaces() ([]Interface, error)

	Socket(family Family, socktype Socktype, protocol Protocol) (Socket, error)
}

type Interface interface {
	Index() int

	MTU() int

	Name() string

	HardwareAddr() net.HardwareAddr

	Flags() net.Flags

	Addrs() ([]net.Addr, error)
}

// SockaddrAddrPort converts an IPv4 socket address to its netip
// representation, other addresses convert to the zero netip.AddrPort.
func SockaddrAddrPort(sa Sockaddr) netip.AddrPort {
	if a, ok := sa.(*SockaddrInet4); ok {
		return netip.AddrPortFrom(netip.AddrFrom4(a.Addr), uint16(a.Port))
	}
	return netip.AddrPort{}
}

// SockaddrInet4From returns the IPv4 socket address for addrPort. The zero
// netip.Addr is the unspecified address.
func SockaddrInet4From(addrPort netip.AddrPort) *SockaddrInet4 {
	sa := &SockaddrInet4{Port: int(addrPort.Port())}
	if addr := addrPort.Addr(); addr.Is4() || addr.Is4In6() {
		sa.Addr = addr.Unmap().As4()
	}
	return sa
}

func errInterfaceNameNotFound(name string) error {
	return fmt.Errorf("name=%q: %w", name, ErrInterfaceNotFound)
}
