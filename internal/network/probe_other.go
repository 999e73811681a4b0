//go:build !linux

package network

import "net/netip"

// HostProbe returns a Probe of the host connection table. The connection
// table is only available on Linux, the probe returned on other platforms
// always fails with ErrNotImplemented.
func HostProbe() Probe {
	return ProbeFunc(func(uint16, netip.AddrPort) (TCPState, error) {
		return 0, ErrNotImplemented
	})
}
