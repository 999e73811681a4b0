package network

import (
	"errors"
	"fmt"
	"net/netip"
)

var (
	// ErrNotFound is returned by a Probe when the host has no record of the
	// connection.
	ErrNotFound = errors.New("connection not found")

	// ErrNotImplemented is returned by a Probe on platforms that do not
	// expose their connection table.
	ErrNotImplemented = errors.New("connection table not available on this platform")
)

// TCPState is the state of a connection as reported by the host. The values
// follow the numbering of the Linux kernel.
type TCPState uint8

const (
	TCPEstablished TCPState = iota + 1
	TCPSynSent
	TCPSynRecv
	TCPFinWait1
	TCPFinWait2
	TCPTimeWait
	TCPClose
	TCPCloseWait
	TCPLastAck
	TCPListen
	TCPClosing
)

func (s TCPState) String() string {
	switch s {
	case TCPEstablished:
		return "ESTABLISHED"
	case TCPSynSent:
		return "SYN_SENT"
	case TCPSynRecv:
		return "SYN_RECV"
	case TCPFinWait1:
		return "FIN_WAIT1"
	case TCPFinWait2:
		return "FIN_WAIT2"
	case TCPTimeWait:
		return "TIME_WAIT"
	case TCPClose:
		return "CLOSE"
	case TCPCloseWait:
		return "CLOSE_WAIT"
	case TCPLastAck:
		return "LAST_ACK"
	case TCPListen:
		return "LISTEN"
	case TCPClosing:
		return "CLOSING"
	default:
		return fmt.Sprintf("TCPState(%d)", uint8(s))
	}
}

// Probe queries the live connection table of the host.
type Probe interface {
	// LookupTCP returns the state of the connection bound to localPort and
	// connected to remote.
	LookupTCP(localPort uint16, remote netip.AddrPort) (TCPState, error)
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func(localPort uint16, remote netip.AddrPort) (TCPState, error)

func (f ProbeFunc) LookupTCP(localPort uint16, remote netip.AddrPort) (TCPState, error) {
	return f(localPort, remote)
}
