package unapi

import (
	"net/netip"

	"github.com/stealthrocket/unapi/internal/errcode"
	"github.com/stealthrocket/unapi/internal/network"
)

// Capability flags reported by GET_CAPAB with B=1, in HL.
const (
	CapabEcho uint16 = 1 << iota
	CapabHostsFile
	CapabDNS
	CapabTCPActive
	CapabTCPPassiveRemote
	CapabTCPPassive
	CapabTCPUrgent
	CapabTCPPush
	CapabTCPEarlySend
	CapabTCPFlush
	CapabUDP
	CapabRawIP
	CapabTTL
	CapabPingReply
	CapabAutoIP
)

// Feature flags reported by GET_CAPAB with B=1, in DE.
const (
	FeaturePointToPoint uint16 = 1 << iota
	FeatureWireless
	FeatureSharedPool
	FeatureExpensiveState
	FeatureHardware
	FeatureLoopback
	FeatureNameCache
	FeatureFragmentation
	FeatureUserTimeout
)

const (
	capabilities = CapabDNS | CapabUDP | CapabAutoIP
	features     = FeatureHardware | FeatureLoopback
)

// Link types reported by GET_CAPAB with B=1, in B.
const (
	LinkUnknown  = 0
	LinkSerial   = 1
	LinkPPP      = 2
	LinkEthernet = 3
)

// Network states reported by NET_STATE in B.
const (
	NetStateDown    = 0
	NetStateUp      = 2
	NetStateUnknown = 255
)

func (d *Driver) getInfo(f *Frame) error {
	f.SetHL(NameAddress)
	f.SetDE(APIVersion)
	f.SetBC(ImplementationVersion)
	return nil
}

// getCapab fills in the requested information but always reports
// INVALID_PARAMETER; callers of this driver have always seen that status.
func (d *Driver) getCapab(f *Frame) error {
	switch f.B {
	case 1:
		f.SetHL(capabilities)
		f.SetDE(features)
		f.B = linkType(d.env.Kind)
	case 2:
		f.B = uint8(d.tcp.Capacity())
		f.C = uint8(d.udp.Capacity())
		f.D = uint8(d.tcp.Free())
		f.E = uint8(d.udp.Free())
		f.SetHL(0)
	case 3:
		f.SetHL(uint16(d.env.MTU))
		f.SetDE(uint16(d.env.MTU))
	}
	return errcode.InvalidParameter
}

func linkType(kind network.LinkKind) uint8 {
	switch kind {
	case network.LinkKindSerial:
		return LinkSerial
	case network.LinkKindPPP:
		return LinkPPP
	case network.LinkKindEthernet:
		return LinkEthernet
	default:
		return LinkUnknown
	}
}

func (d *Driver) getIPInfo(f *Frame) error {
	var addr netip.Addr
	switch f.B {
	case 1:
		addr = d.env.Address
	case 3:
		addr = d.env.Mask
	case 4:
		addr = d.env.Gateway
	case 5:
		addr, _ = d.env.DNSServer(0)
	case 6:
		addr, _ = d.env.DNSServer(1)
	}
	if !addr.Is4() {
		return errcode.InvalidParameter
	}
	f.setIP(addr)
	return nil
}

func (d *Driver) netState(f *Frame) error {
	switch d.env.Status() {
	case network.LinkUp:
		f.B = NetStateUp
	case network.LinkUnknown:
		f.B = NetStateUnknown
	default:
		f.B = NetStateDown
	}
	return nil
}
