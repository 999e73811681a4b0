//go:build !linux

package network

import "net"

// LinkInfo returns the link information of the named interface. Only the
// operational state is known on this platform, derived from the interface
// flags.
func LinkInfo(name string) (Link, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return Link{}, errInterfaceNameNotFound(name)
	}
	info := Link{Name: iface.Name, State: LinkDown}
	if (iface.Flags & net.FlagUp) != 0 {
		info.State = LinkUp
	}
	if (iface.Flags & net.FlagPointToPoint) != 0 {
		info.Kind = LinkKindPPP
	} else if len(iface.HardwareAddr) == 6 {
		info.Kind = LinkKindEthernet
	}
	return info, nil
}
