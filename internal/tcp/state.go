package tcp

import (
	"fmt"

	"github.com/stealthrocket/unapi/internal/network"
)

// State is a connection state as numbered by the TCP/IP UNAPI. The states
// are ordered, the receive path accepts every state from Established onward.
type State uint8

const (
	Closed State = iota
	Listen
	SynSent
	SynReceived
	Established
	FinWait1
	FinWait2
	CloseWait
	Closing
	LastAck
	TimeWait
)

var stateNames = [...]string{
	Closed:      "CLOSED",
	Listen:      "LISTEN",
	SynSent:     "SYN-SENT",
	SynReceived: "SYN-RECEIVED",
	Established: "ESTABLISHED",
	FinWait1:    "FIN-WAIT-1",
	FinWait2:    "FIN-WAIT-2",
	CloseWait:   "CLOSE-WAIT",
	Closing:     "CLOSING",
	LastAck:     "LAST-ACK",
	TimeWait:    "TIME-WAIT",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// CanSend reports whether data may be sent in state s.
func (s State) CanSend() bool {
	return s == Established || s == CloseWait
}

// CanReceive reports whether data may be received in state s.
func (s State) CanReceive() bool {
	return s >= Established
}

func hostState(s network.TCPState) State {
	switch s {
	case network.TCPEstablished:
		return Established
	case network.TCPSynSent:
		return SynSent
	case network.TCPSynRecv:
		return SynReceived
	case network.TCPFinWait1:
		return FinWait1
	case network.TCPFinWait2:
		return FinWait2
	case network.TCPTimeWait:
		return TimeWait
	case network.TCPCloseWait:
		return CloseWait
	case network.TCPLastAck:
		return LastAck
	case network.TCPListen:
		return Listen
	case network.TCPClosing:
		return Closing
	default:
		return Closed
	}
}
