package network

import (
	"net/netip"

	"github.com/vishvananda/netlink"
)

// LinkInfo returns the link information of the named interface.
func LinkInfo(name string) (Link, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return Link{}, errLinkLookup(name, err)
	}

	attrs := link.Attrs()
	info := Link{
		Name:  attrs.Name,
		State: linkState(attrs.OperState),
		Kind:  linkKind(attrs.EncapType),
	}

	routes, err := netlink.RouteList(link, netlink.FAMILY_V4)
	if err != nil {
		return info, errLinkLookup(name, err)
	}
	for _, route := range routes {
		if route.Dst != nil || route.Gw == nil {
			continue
		}
		if gw, ok := netip.AddrFromSlice(route.Gw); ok {
			info.Gateway = gw.Unmap()
			break
		}
	}
	return info, nil
}

func linkState(state netlink.LinkOperState) LinkState {
	switch state {
	case netlink.OperUp:
		return LinkUp
	case netlink.OperUnknown:
		return LinkUnknown
	default:
		return LinkDown
	}
}

func linkKind(encap string) LinkKind {
	switch encap {
	case "slip", "cslip", "slip6", "cslip6":
		return LinkKindSerial
	case "ppp":
		return LinkKindPPP
	case "ether", "eether", "ieee802":
		return LinkKindEthernet
	default:
		return LinkKindUnknown
	}
}
