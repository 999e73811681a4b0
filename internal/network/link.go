package network

import (
	"fmt"
	"net/netip"
)

// LinkState is the operational state of a network link.
type LinkState uint8

const (
	LinkUnknown LinkState = iota
	LinkDown
	LinkUp
)

func (s LinkState) String() string {
	switch s {
	case LinkDown:
		return "down"
	case LinkUp:
		return "up"
	default:
		return "unknown"
	}
}

// LinkKind is the kind of physical link an interface is attached to.
type LinkKind uint8

const (
	LinkKindUnknown LinkKind = iota
	LinkKindSerial
	LinkKindPPP
	LinkKindEthernet
)

func (k LinkKind) String() string {
	switch k {
	case LinkKindSerial:
		return "serial"
	case LinkKindPPP:
		return "ppp"
	case LinkKindEthernet:
		return "ethernet"
	default:
		return "unknown"
	}
}

// Link carries the information about a network link that the net package
// does not expose.
type Link struct {
	Name    string
	State   LinkState
	Kind    LinkKind
	Gateway netip.Addr
}

// LinkFunc is the signature of functions looking up links by name, LinkInfo
// is the host implementation.
type LinkFunc func(name string) (Link, error)

func errLinkLookup(name string, err error) error {
	return fmt.Errorf("link %q: %w", name, err)
}
